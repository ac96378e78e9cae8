package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/internal/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScriptAcceptsAfterOnePending(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(nil, nil)

	seed := field.FromUint64(99)
	h, err := l.Execute(ctx, "signer", types.SubmitReport{Seed: seed})
	require.NoError(t, err)

	first, err := l.TransactionStatus(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, types.StatePending, first.State())

	second, err := l.TransactionStatus(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, types.StateAccepted, second.State())
	assert.NotEmpty(t, second.TransactionID)

	// The last status repeats.
	third, err := l.TransactionStatus(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, *second, *third)
	assert.Equal(t, 3, l.Lookups(h))

	id, err := l.ReportID(ctx, second.TransactionID)
	require.NoError(t, err)
	assert.True(t, id.Equal(seed))

	executed := l.Executed()
	require.Len(t, executed, 1)
	assert.Equal(t, uint64(1500000), executed[0].Fee)
	assert.Equal(t, "signer", executed[0].Signer)
}

func TestScriptedSequence(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(nil, nil)
	l.Script(types.StatusReport{Status: "Failed"})

	h, err := l.Execute(ctx, "signer", types.UpdateStatus{ReportID: field.FromUint64(1), Status: types.ReportResolved})
	require.NoError(t, err)

	st, err := l.TransactionStatus(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, types.StateFailed, st.State())
	assert.Equal(t, uint64(50000), l.Executed()[0].Fee)
}

func TestInjectedFailures(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(nil, nil)

	boom := errors.New("wallet declined")
	l.FailExecute(boom)
	_, err := l.Execute(ctx, "signer", types.AddComment{})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, l.Executed())

	l.FailExecute(nil)
	h, err := l.Execute(ctx, "signer", types.AddComment{})
	require.NoError(t, err)

	l.FailStatus(boom)
	_, err = l.TransactionStatus(ctx, h)
	assert.ErrorIs(t, err, boom)

	_, err = l.TransactionStatus(ctx, "nope")
	assert.Error(t, err)
}
