package types

import (
	"testing"

	"github.com/blockend-dev/AleoWhistle/internal/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReportInputOrder(t *testing.T) {
	tx := SubmitReport{
		Seed:            field.FromUint64(11),
		Category:        1,
		Severity:        2,
		ContentDigest:   field.FromUint64(33),
		Locator:         field.FromUint64(44),
		WrappedKeys:     []field.Element{field.FromUint64(55), field.FromUint64(66)},
		EphemeralPublic: field.FromUint64(77),
	}

	assert.Equal(t, KindSubmitReport, tx.Kind())
	assert.Equal(t, []string{
		"11field", "1u8", "2u8", "33field", "44field", "44field", "55field", "66field", "77field",
	}, tx.Inputs())
}

func TestNarrowTransactions(t *testing.T) {
	update := UpdateStatus{ReportID: field.FromUint64(9), Status: ReportResolved}
	assert.Equal(t, KindUpdateStatus, update.Kind())
	assert.Equal(t, []string{"9field", "3u8"}, update.Inputs())

	comment := AddComment{ReportID: field.FromUint64(9), Comment: field.FromUint64(10)}
	assert.Equal(t, KindAddComment, comment.Kind())
	assert.Equal(t, []string{"9field", "10field"}, comment.Inputs())
}

func TestParseState(t *testing.T) {
	tests := map[string]TxState{
		"Pending":  StatePending,
		"":         StatePending,
		"Accepted": StateAccepted,
		"FAILED":   StateFailed,
		"Aborted":  StateAborted,
		"rejected": StateRejected,
		"weird":    StateUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseState(in), "input %q", in)
	}
	assert.True(t, StateAborted.Terminal())
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateUnknown.Terminal())
}

func TestParseReportStatus(t *testing.T) {
	s, err := ParseReportStatus("resolved")
	require.NoError(t, err)
	assert.Equal(t, ReportResolved, s)

	s, err = ParseReportStatus("4")
	require.NoError(t, err)
	assert.Equal(t, ReportRejected, s)
	assert.Equal(t, "rejected", s.String())

	for _, bad := range []string{"0", "5", "closed", "-1"} {
		_, err := ParseReportStatus(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
