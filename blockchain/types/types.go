package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blockend-dev/AleoWhistle/internal/field"
)

// Handle is the provisional transaction id returned when a write is dispatched.
type Handle string

// TxKind names the ledger function a transaction calls.
type TxKind string

const (
	KindSubmitReport TxKind = "submit_report"
	KindUpdateStatus TxKind = "update_status"
	KindAddComment   TxKind = "add_comment"
)

// Transaction is one of SubmitReport, UpdateStatus or AddComment.
type Transaction interface {
	Kind() TxKind
	// Inputs returns the ledger literals in the order the program expects them.
	Inputs() []string
	isTransaction()
}

// SubmitReport publishes a new report's commitments.
type SubmitReport struct {
	Seed            field.Element
	Category        uint8
	Severity        uint8
	ContentDigest   field.Element
	Locator         field.Element // used for both the evidence and encrypted-data slots
	WrappedKeys     []field.Element
	EphemeralPublic field.Element
}

func (SubmitReport) Kind() TxKind { return KindSubmitReport }

func (t SubmitReport) Inputs() []string {
	inputs := make([]string, 0, 7+len(t.WrappedKeys))
	inputs = append(inputs,
		t.Seed.String(),
		U8(t.Category),
		U8(t.Severity),
		t.ContentDigest.String(),
		t.Locator.String(),
		t.Locator.String(),
	)
	for _, k := range t.WrappedKeys {
		inputs = append(inputs, k.String())
	}
	return append(inputs, t.EphemeralPublic.String())
}

func (SubmitReport) isTransaction() {}

// UpdateStatus moves a report to a new review status.
type UpdateStatus struct {
	ReportID field.Element
	Status   ReportStatus
}

func (UpdateStatus) Kind() TxKind { return KindUpdateStatus }

func (t UpdateStatus) Inputs() []string {
	return []string{t.ReportID.String(), U8(uint8(t.Status))}
}

func (UpdateStatus) isTransaction() {}

// AddComment attaches an encrypted reviewer comment to a report.
type AddComment struct {
	ReportID field.Element
	Comment  field.Element
}

func (AddComment) Kind() TxKind { return KindAddComment }

func (t AddComment) Inputs() []string {
	return []string{t.ReportID.String(), t.Comment.String()}
}

func (AddComment) isTransaction() {}

// U8 formats a ledger u8 literal.
func U8(v uint8) string {
	return strconv.FormatUint(uint64(v), 10) + "u8"
}

// TxState is the normalized lifecycle state of a dispatched transaction.
type TxState string

const (
	StatePending  TxState = "pending"
	StateAccepted TxState = "accepted"
	StateFailed   TxState = "failed"
	StateAborted  TxState = "aborted"
	StateRejected TxState = "rejected"
	StateUnknown  TxState = "unknown"
)

// ParseState maps a ledger status string onto a TxState, ignoring case.
func ParseState(s string) TxState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "":
		return StatePending
	case "accepted", "finalized", "confirmed":
		return StateAccepted
	case "failed":
		return StateFailed
	case "aborted":
		return StateAborted
	case "rejected":
		return StateRejected
	default:
		return StateUnknown
	}
}

// Terminal reports whether no further transitions can follow.
func (s TxState) Terminal() bool {
	switch s {
	case StateAccepted, StateFailed, StateAborted, StateRejected:
		return true
	}
	return false
}

// StatusReport is one answer of the ledger's status lookup.
type StatusReport struct {
	Status        string // raw status string as reported
	TransactionID string // final id, set once accepted
}

// State normalizes Status.
func (r StatusReport) State() TxState {
	return ParseState(r.Status)
}

// ReportStatus is the review state stored with a report on the ledger.
type ReportStatus uint8

const (
	ReportPending     ReportStatus = 1
	ReportUnderReview ReportStatus = 2
	ReportResolved    ReportStatus = 3
	ReportRejected    ReportStatus = 4
)

var reportStatusNames = map[ReportStatus]string{
	ReportPending:     "pending",
	ReportUnderReview: "under_review",
	ReportResolved:    "resolved",
	ReportRejected:    "rejected",
}

func (s ReportStatus) String() string {
	if name, ok := reportStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ReportStatus(%d)", uint8(s))
}

// Valid reports whether s is one of the known codes.
func (s ReportStatus) Valid() bool {
	_, ok := reportStatusNames[s]
	return ok
}

// ParseReportStatus accepts a name ("resolved") or a numeric code ("3").
func ParseReportStatus(s string) (ReportStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for code, name := range reportStatusNames {
		if s == name {
			return code, nil
		}
	}
	n, err := strconv.ParseUint(strings.TrimSuffix(s, "u8"), 10, 8)
	if err != nil || !ReportStatus(n).Valid() {
		return 0, fmt.Errorf("unknown report status %q", s)
	}
	return ReportStatus(n), nil
}
