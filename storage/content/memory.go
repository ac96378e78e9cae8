package content

import (
	"context"
	"fmt"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// MemoryStore keeps objects in a map under CIDv1 raw/sha2-256 locators.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	names   map[string]string
	putErr  error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		names:   make(map[string]string),
	}
}

// Locator computes the CID MemoryStore assigns to data.
func Locator(data []byte) (string, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}

func (s *MemoryStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return "", s.putErr
	}
	locator, err := Locator(data)
	if err != nil {
		return "", err
	}
	s.objects[locator] = append([]byte(nil), data...)
	s.names[locator] = name
	return locator, nil
}

func (s *MemoryStore) Get(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[locator]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	return append([]byte(nil), data...), nil
}

// FailPut makes subsequent Put calls return err; nil restores normal behavior.
func (s *MemoryStore) FailPut(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putErr = err
}

// Replace overwrites the object behind locator without changing the locator, the way a
// misbehaving gateway would.
func (s *MemoryStore) Replace(locator string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[locator] = append([]byte(nil), data...)
}

// Name returns the display name an object was stored under.
func (s *MemoryStore) Name(locator string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[locator]
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
