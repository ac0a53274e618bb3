// Package storage selects and bootstraps the persistence backend shared by the
// lead store and the rate limiter.
package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Kind names a storage backend.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindDynamoDB Kind = "dynamodb"
	KindPostgres Kind = "postgres"
	KindRedis    Kind = "redis"
)

// ErrUnsupportedScheme is returned for storage URLs with an unknown scheme.
var ErrUnsupportedScheme = errors.New("storage: unsupported scheme")

// Target is a parsed STORAGE_URL.
type Target struct {
	Kind Kind
	// URL is the original connection string, passed through to pgx or
	// go-redis unchanged.
	URL string
	// Endpoint is an optional DynamoDB endpoint (http://host:port) taken from
	// dynamodb://host:port. Empty means the AWS default resolver.
	Endpoint string
}

// ParseURL maps a connection string to a backend. An empty string selects
// the in-memory backend.
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{Kind: KindMemory, URL: "memory://"}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("storage: parse url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "memory", "mem":
		return Target{Kind: KindMemory, URL: raw}, nil
	case "dynamodb", "dynamo":
		t := Target{Kind: KindDynamoDB, URL: raw}
		if u.Host != "" {
			t.Endpoint = "http://" + u.Host
		}
		return t, nil
	case "postgres", "postgresql":
		return Target{Kind: KindPostgres, URL: raw}, nil
	case "redis", "rediss":
		return Target{Kind: KindRedis, URL: raw}, nil
	default:
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
