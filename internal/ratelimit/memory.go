package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps buckets in process memory. Buckets are never evicted, so
// it is meant for local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]Bucket
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]Bucket)}
}

// Get returns a copy of the bucket, or ErrBucketNotFound.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[key]
	if !ok {
		return nil, ErrBucketNotFound
	}
	return &b, nil
}

// Create stores a new bucket, or returns ErrBucketExists.
func (s *MemoryStore) Create(ctx context.Context, bucket *Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buckets[bucket.Key]; ok {
		return ErrBucketExists
	}
	s.buckets[bucket.Key] = *bucket
	return nil
}

// Increment adds one to the bucket count and records the request time.
func (s *MemoryStore) Increment(ctx context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		return ErrBucketNotFound
	}
	b.Count++
	b.LastRequest = at
	s.buckets[key] = b
	return nil
}

// Len reports the number of stored buckets.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

var _ Store = (*MemoryStore)(nil)
