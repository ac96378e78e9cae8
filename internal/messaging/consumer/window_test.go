package consumer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitWindowHoldsOutOfOrderAcks(t *testing.T) {
	w := newCommitWindow()
	for _, off := range []int64{10, 11, 12} {
		w.track(0, off)
	}
	w.track(1, 7)

	_, ok := w.complete(0, 11)
	assert.False(t, ok, "offset 10 is still in flight")
	_, ok = w.complete(0, 12)
	assert.False(t, ok)
	assert.Equal(t, 3, w.pending(0))

	upTo, ok := w.complete(1, 7)
	assert.True(t, ok)
	assert.Equal(t, int64(7), upTo)

	upTo, ok = w.complete(0, 10)
	assert.True(t, ok)
	assert.Equal(t, int64(12), upTo)
	assert.Zero(t, w.pending(0))
}

func TestCommitWindowUnknownPartition(t *testing.T) {
	_, ok := newCommitWindow().complete(3, 1)
	assert.False(t, ok)
}
