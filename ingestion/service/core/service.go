package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/internal/field"
	"github.com/blockend-dev/AleoWhistle/internal/messaging/producer"
	"github.com/blockend-dev/AleoWhistle/internal/models"
	"github.com/blockend-dev/AleoWhistle/storage/store"
	"github.com/blockend-dev/AleoWhistle/submission"

	"github.com/google/uuid"
)

// ValidationError marks input the caller has to fix.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ReportInput defines the information required for a report submission
type ReportInput struct {
	Title       string
	Description string
	Category    uint8
	Severity    uint8
	Evidence    []submission.File
}

// ReportResult defines the return information after a report was dispatched
type ReportResult struct {
	RequestID        string
	Handle           types.Handle
	Seed             field.Element // only ever returned to the submitter
	Locator          string
	EvidenceLocators []string
	ContentDigest    field.Element
	ReceivedAt       time.Time
}

// StatusInput asks for a report's review status to change
type StatusInput struct {
	ReportID string // "<n>field" or bare decimal
	Status   string // name or numeric code
}

// StatusResult defines the return information after a status update was dispatched
type StatusResult struct {
	RequestID string
	Handle    types.Handle
}

// Service encapsulates the core business logic of the gateway
type Service struct {
	orch           *submission.Orchestrator
	session        submission.Session
	store          store.Store
	logger         *log.Logger
	batchProcessor *BatchProcessor
}

// NewService creates a new Service instance with configuration
func NewService(orch *submission.Orchestrator, session submission.Session, s store.Store, p producer.Producer, l *log.Logger,
	batchSize int, batchTimeout time.Duration, flushChannelBuffer int) *Service {
	return &Service{
		orch:           orch,
		session:        session,
		store:          s,
		logger:         l,
		batchProcessor: NewBatchProcessor(batchSize, batchTimeout, flushChannelBuffer, s, p, l),
	}
}

// SubmitReport encrypts, uploads and dispatches a report, then queues it for tracking
func (s *Service) SubmitReport(ctx context.Context, input *ReportInput) (*ReportResult, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "cannot be empty"}
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, &ValidationError{Field: "description", Reason: "cannot be empty"}
	}
	for i, f := range input.Evidence {
		if len(f.Data) == 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("evidence[%d]", i), Reason: "has no data"}
		}
	}

	receivedAt := time.Now()
	sub, err := s.orch.Submit(ctx, s.session, submission.Report{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Severity:    input.Severity,
		Timestamp:   receivedAt,
		Evidence:    input.Evidence,
	})
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	s.batchProcessor.Submit(requestID, sub.Handle, types.KindSubmitReport, "")

	return &ReportResult{
		RequestID:        requestID,
		Handle:           sub.Handle,
		Seed:             sub.Seed,
		Locator:          sub.Locator,
		EvidenceLocators: sub.EvidenceLocators,
		ContentDigest:    sub.ContentDigest,
		ReceivedAt:       receivedAt,
	}, nil
}

// UpdateStatus dispatches a review status change and queues it for tracking
func (s *Service) UpdateStatus(ctx context.Context, input *StatusInput) (*StatusResult, error) {
	reportID, err := field.Parse(input.ReportID)
	if err != nil {
		return nil, &ValidationError{Field: "report_id", Reason: "is not a field literal"}
	}
	status, err := types.ParseReportStatus(input.Status)
	if err != nil {
		return nil, &ValidationError{Field: "status", Reason: err.Error()}
	}

	handle, err := s.orch.UpdateStatus(ctx, s.session, reportID, status)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	s.batchProcessor.Submit(requestID, handle, types.KindUpdateStatus, reportID.String())
	return &StatusResult{RequestID: requestID, Handle: handle}, nil
}

// Transaction returns the journal record of a request
func (s *Service) Transaction(ctx context.Context, requestID string) (*store.TxRecord, error) {
	if requestID == "" {
		return nil, &ValidationError{Field: "request_id", Reason: "is required"}
	}
	rec, err := s.store.GetByRequestID(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction %s: %w", requestID, err)
	}
	return rec, nil
}

// Close gracefully shuts down the service
func (s *Service) Close() {
	s.batchProcessor.Close()
}

func newJob(requestID string, handle types.Handle, kind types.TxKind, reportID string, at time.Time) (*store.TxRecord, *models.TrackJob) {
	rec := &store.TxRecord{
		RequestID: requestID,
		Handle:    string(handle),
		Kind:      string(kind),
		ReportID:  reportID,
		Status:    store.StatusPending,
		CreatedAt: at,
		UpdatedAt: at,
	}
	job := &models.TrackJob{
		RequestID:    requestID,
		Handle:       string(handle),
		Kind:         string(kind),
		ReportID:     reportID,
		DispatchedAt: at.Format(time.RFC3339Nano),
	}
	return rec, job
}
