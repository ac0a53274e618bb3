package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores each lead as a hash under <prefix>:<id> and keeps an
// index of ids in submission order.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository builds a repository using the given key prefix.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if client == nil {
		panic("leads: redis client required")
	}
	if prefix == "" {
		prefix = "leads"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(id string) string {
	return r.prefix + ":" + id
}

func (r *RedisRepository) indexKey() string {
	return r.prefix + ":index"
}

func (r *RedisRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead := newLead(req, time.Now())
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key(lead.ID),
		"id", lead.ID,
		"firstName", lead.FirstName,
		"lastName", lead.LastName,
		"email", lead.Email,
		"phone", lead.Phone,
		"message", lead.Message,
		"pageUrl", lead.PageURL,
		"userAgent", lead.UserAgent,
		"ipAddress", lead.IPAddress,
		"submittedAt", lead.SubmittedAt.Format(time.RFC3339Nano),
	)
	pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(lead.SubmittedAt.UnixMilli()), Member: lead.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("leads: redis write failed: %w", err)
	}
	return lead, nil
}

func (r *RedisRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("leads: redis read failed: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrLeadNotFound
	}
	lead := &Lead{
		ID:        fields["id"],
		FirstName: fields["firstName"],
		LastName:  fields["lastName"],
		Email:     fields["email"],
		Phone:     fields["phone"],
		Message:   fields["message"],
		PageURL:   fields["pageUrl"],
		UserAgent: fields["userAgent"],
		IPAddress: fields["ipAddress"],
	}
	lead.SubmittedAt, _ = time.Parse(time.RFC3339Nano, fields["submittedAt"])
	return lead, nil
}

// Count reports the number of indexed leads.
func (r *RedisRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("leads: redis count failed: %w", err)
	}
	return n, nil
}

var _ Repository = (*RedisRepository)(nil)
