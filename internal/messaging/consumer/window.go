package consumer

import "sync"

// commitWindow releases offsets per partition in fetch order. Kafka commits are cumulative,
// so an offset may only be committed once every earlier offset fetched from the same
// partition has been acknowledged too.
type commitWindow struct {
	mu         sync.Mutex
	partitions map[int]*partitionWindow
}

type partitionWindow struct {
	inflight []int64 // fetch order
	done     map[int64]bool
}

func newCommitWindow() *commitWindow {
	return &commitWindow{partitions: make(map[int]*partitionWindow)}
}

// track registers a fetched offset.
func (w *commitWindow) track(partition int, offset int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.partitions[partition]
	if !ok {
		p = &partitionWindow{done: make(map[int64]bool)}
		w.partitions[partition] = p
	}
	p.inflight = append(p.inflight, offset)
}

// complete marks offset acknowledged and returns the highest offset whose whole prefix is
// acknowledged. ok is false when the committable position did not move.
func (w *commitWindow) complete(partition int, offset int64) (upTo int64, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, found := w.partitions[partition]
	if !found {
		return 0, false
	}
	p.done[offset] = true
	for len(p.inflight) > 0 && p.done[p.inflight[0]] {
		upTo, ok = p.inflight[0], true
		delete(p.done, upTo)
		p.inflight = p.inflight[1:]
	}
	return upTo, ok
}

// pending returns how many fetched offsets of partition are not yet committable.
func (w *commitWindow) pending(partition int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.partitions[partition]; ok {
		return len(p.inflight)
	}
	return 0
}
