// Package ratelimit enforces the daily contact-form quota per client identity.
// A client identity is the resolved IP, a short user-agent hash and the civil
// day in a fixed reference timezone. Buckets roll over because the day is part
// of the key.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	// DefaultLimit is the number of submissions admitted per identity per day.
	DefaultLimit = 5
	// DefaultTimezone is the civil-day reference used for day keys.
	DefaultTimezone = "America/Chicago"

	uaHashLength = 16
	dayLayout    = "2006-01-02"
)

var (
	// ErrBucketNotFound is returned by a Store when no bucket exists for a key.
	ErrBucketNotFound = errors.New("ratelimit: bucket not found")
	// ErrBucketExists is returned by Store.Create when a concurrent request
	// created the same bucket first.
	ErrBucketExists = errors.New("ratelimit: bucket already exists")
)

// Bucket is the persisted counter for one identity on one day.
type Bucket struct {
	Key         string    `dynamodbav:"rowKey" json:"rowKey"`
	IP          string    `dynamodbav:"ip" json:"ip"`
	UAHash      string    `dynamodbav:"uaHash" json:"uaHash"`
	DayKey      string    `dynamodbav:"dayKey" json:"dayKey"`
	Count       int       `dynamodbav:"count" json:"count"`
	CreatedAt   time.Time `dynamodbav:"createdAt" json:"createdAt"`
	LastRequest time.Time `dynamodbav:"lastRequest" json:"lastRequest"`
}

// Store persists buckets. Get must return ErrBucketNotFound for unknown keys.
type Store interface {
	Get(ctx context.Context, key string) (*Bucket, error)
	Create(ctx context.Context, bucket *Bucket) error
	Increment(ctx context.Context, key string, at time.Time) error
}

// Decision is the outcome of a quota check.
type Decision struct {
	Limited bool
	Key     string
	Count   int
}

// Limiter admits or rejects submissions against a Store.
type Limiter struct {
	store Store
	limit int
	loc   *time.Location
	now   func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLocation sets the timezone that defines a day.
func WithLocation(loc *time.Location) Option {
	return func(l *Limiter) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// New builds a limiter. A non-positive limit falls back to DefaultLimit.
func New(store Store, limit int, opts ...Option) *Limiter {
	if store == nil {
		panic("ratelimit: store required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	l := &Limiter{
		store: store,
		limit: limit,
		loc:   defaultLocation(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit reports the configured daily quota.
func (l *Limiter) Limit() int { return l.limit }

// Check counts one submission for the identity and reports whether it is over
// quota. A limited check does not increment the bucket. Errors are storage
// failures; callers treat them as advisory.
func (l *Limiter) Check(ctx context.Context, ip, userAgent string) (Decision, error) {
	now := l.now()
	uaHash := HashUserAgent(userAgent)
	dayKey := DayKey(now, l.loc)
	key := BucketKey(ip, uaHash, dayKey)
	decision := Decision{Key: key}

	bucket, err := l.store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrBucketNotFound):
		err = l.store.Create(ctx, &Bucket{
			Key:         key,
			IP:          ip,
			UAHash:      uaHash,
			DayKey:      dayKey,
			Count:       1,
			CreatedAt:   now.UTC(),
			LastRequest: now.UTC(),
		})
		if errors.Is(err, ErrBucketExists) {
			// Lost a create race; count this request against the winner's bucket.
			if err := l.store.Increment(ctx, key, now.UTC()); err != nil {
				return decision, fmt.Errorf("ratelimit: increment %s: %w", key, err)
			}
			decision.Count = 2
			return decision, nil
		}
		if err != nil {
			return decision, fmt.Errorf("ratelimit: create %s: %w", key, err)
		}
		decision.Count = 1
		return decision, nil
	case err != nil:
		return decision, fmt.Errorf("ratelimit: lookup %s: %w", key, err)
	}

	if bucket.Count >= l.limit {
		decision.Limited = true
		decision.Count = bucket.Count
		return decision, nil
	}
	if err := l.store.Increment(ctx, key, now.UTC()); err != nil {
		return decision, fmt.Errorf("ratelimit: increment %s: %w", key, err)
	}
	decision.Count = bucket.Count + 1
	return decision, nil
}

// DayKey formats t as a civil date in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = defaultLocation()
	}
	return t.In(loc).Format(dayLayout)
}

// HashUserAgent returns the first 16 hex characters of the SHA-256 of the
// user agent. An empty user agent hashes as "unknown".
func HashUserAgent(userAgent string) string {
	if userAgent == "" {
		userAgent = "unknown"
	}
	sum := sha256.Sum256([]byte(userAgent))
	return hex.EncodeToString(sum[:])[:uaHashLength]
}

// BucketKey joins the identity parts into the storage key.
func BucketKey(ip, uaHash, dayKey string) string {
	return ip + "_" + uaHash + "_" + dayKey
}

// LoadLocation resolves a timezone name, falling back to DefaultTimezone.
func LoadLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: load timezone %q: %w", name, err)
	}
	return loc, nil
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
