package leads

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

// PostgresRepository stores leads in the contact_leads table.
type PostgresRepository struct {
	db rowQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithExec(db rowQuerier) *PostgresRepository {
	if db == nil {
		panic("leads: exec required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead := newLead(req, time.Now())
	query := `
		INSERT INTO contact_leads (id, first_name, last_name, email, phone, message, page_url, user_agent, ip_address, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING submitted_at
	`
	if err := r.db.QueryRow(ctx, query,
		lead.ID,
		lead.FirstName,
		lead.LastName,
		lead.Email,
		lead.Phone,
		lead.Message,
		lead.PageURL,
		lead.UserAgent,
		lead.IPAddress,
		lead.SubmittedAt,
	).Scan(&lead.SubmittedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return lead, nil
}

// GetByID fetches a lead by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, message, page_url, user_agent, ip_address, submitted_at
		FROM contact_leads
		WHERE id = $1
	`
	var lead Lead
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&lead.ID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Email,
		&lead.Phone,
		&lead.Message,
		&lead.PageURL,
		&lead.UserAgent,
		&lead.IPAddress,
		&lead.SubmittedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return &lead, nil
}

var _ Repository = (*PostgresRepository)(nil)
