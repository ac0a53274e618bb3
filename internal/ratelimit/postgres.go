package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps buckets in the contact_rate_limits table.
type PostgresStore struct {
	db rowQuerier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("ratelimit: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithExec(db rowQuerier) *PostgresStore {
	if db == nil {
		panic("ratelimit: exec required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Bucket, error) {
	query := `
		SELECT row_key, ip, ua_hash, day_key, count, created_at, last_request
		FROM contact_rate_limits
		WHERE row_key = $1
	`
	var b Bucket
	if err := s.db.QueryRow(ctx, query, key).Scan(
		&b.Key,
		&b.IP,
		&b.UAHash,
		&b.DayKey,
		&b.Count,
		&b.CreatedAt,
		&b.LastRequest,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBucketNotFound
		}
		return nil, fmt.Errorf("ratelimit: select bucket: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) Create(ctx context.Context, b *Bucket) error {
	query := `
		INSERT INTO contact_rate_limits (row_key, ip, ua_hash, day_key, count, created_at, last_request)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (row_key) DO NOTHING
	`
	tag, err := s.db.Exec(ctx, query, b.Key, b.IP, b.UAHash, b.DayKey, b.Count, b.CreatedAt, b.LastRequest)
	if err != nil {
		return fmt.Errorf("ratelimit: insert bucket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBucketExists
	}
	return nil
}

func (s *PostgresStore) Increment(ctx context.Context, key string, at time.Time) error {
	query := `
		UPDATE contact_rate_limits
		SET count = count + 1, last_request = $2
		WHERE row_key = $1
	`
	tag, err := s.db.Exec(ctx, query, key, at)
	if err != nil {
		return fmt.Errorf("ratelimit: update bucket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBucketNotFound
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
