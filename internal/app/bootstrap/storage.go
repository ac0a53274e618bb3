package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/blueflare-energy/leadcapture/internal/config"
	"github.com/blueflare-energy/leadcapture/internal/leads"
	"github.com/blueflare-energy/leadcapture/internal/ratelimit"
	"github.com/blueflare-energy/leadcapture/internal/storage"
	"github.com/blueflare-energy/leadcapture/pkg/logging"
)

const (
	leadsHashKey = "id"
	rateHashKey  = "rowKey"
)

// Stores bundles the two persistence ports served by one backend.
type Stores struct {
	Kind    storage.Kind
	Leads   leads.Repository
	Buckets ratelimit.Store
	closers []func()
}

// Close releases backend connections.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// BuildStores opens the backend selected by STORAGE_URL. With AutoMigrate the
// DynamoDB tables or Postgres schema are created first; both are idempotent.
func BuildStores(ctx context.Context, cfg *appconfig.Config, deps Deps, logger *logging.Logger) (*Stores, error) {
	if logger == nil {
		logger = logging.Default()
	}
	target, err := storage.ParseURL(cfg.StorageURL)
	if err != nil {
		return nil, err
	}

	switch target.Kind {
	case storage.KindMemory:
		logger.Warn("using in-memory storage; leads are lost on restart")
		return &Stores{
			Kind:    target.Kind,
			Leads:   leads.NewInMemoryRepository(),
			Buckets: ratelimit.NewMemoryStore(),
		}, nil
	case storage.KindDynamoDB:
		return buildDynamoStores(ctx, cfg, deps, target, logger)
	case storage.KindPostgres:
		return buildPostgresStores(ctx, cfg, target, logger)
	case storage.KindRedis:
		return buildRedisStores(ctx, cfg, target, logger)
	default:
		return nil, fmt.Errorf("bootstrap: %w: %s", storage.ErrUnsupportedScheme, target.Kind)
	}
}

func buildDynamoStores(ctx context.Context, cfg *appconfig.Config, deps Deps, target storage.Target, logger *logging.Logger) (*Stores, error) {
	if deps.AWSConfig == nil {
		return nil, fmt.Errorf("bootstrap: aws config loader is required for dynamodb storage")
	}
	awsCfg, err := deps.AWSConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if target.Endpoint != "" {
			o.BaseEndpoint = aws.String(target.Endpoint)
		}
	})

	if cfg.AutoMigrate {
		if err := storage.EnsureTable(ctx, client, cfg.LeadsTableName, leadsHashKey); err != nil {
			return nil, err
		}
		if err := storage.EnsureTable(ctx, client, cfg.RateTableName, rateHashKey); err != nil {
			return nil, err
		}
	}

	logger.Info("dynamodb storage ready", "leads_table", cfg.LeadsTableName, "rate_table", cfg.RateTableName, "endpoint", target.Endpoint)
	return &Stores{
		Kind:    target.Kind,
		Leads:   leads.NewDynamoRepository(client, cfg.LeadsTableName, logger),
		Buckets: ratelimit.NewDynamoStore(client, cfg.RateTableName),
	}, nil
}

func buildPostgresStores(ctx context.Context, cfg *appconfig.Config, target storage.Target, logger *logging.Logger) (*Stores, error) {
	if ignored := postgresIgnoredSettings(cfg); len(ignored) > 0 {
		logger.Warn("table name settings have no effect with postgres storage",
			"settings", ignored, "leads_table", "contact_leads", "rate_table", "contact_rate_limits")
	}
	if cfg.AutoMigrate {
		if err := storage.MigrateUp(target.URL); err != nil {
			return nil, err
		}
		logger.Info("database migrations applied")
	}
	pool, err := storage.ConnectPostgres(ctx, target.URL)
	if err != nil {
		return nil, err
	}
	logger.Info("postgres storage ready")
	return &Stores{
		Kind:    target.Kind,
		Leads:   leads.NewPostgresRepository(pool),
		Buckets: ratelimit.NewPostgresStore(pool),
		closers: []func(){pool.Close},
	}, nil
}

// postgresIgnoredSettings lists table name variables set away from their
// defaults. The postgres schema names its tables itself.
func postgresIgnoredSettings(cfg *appconfig.Config) []string {
	var ignored []string
	if cfg.LeadsTableName != "" && cfg.LeadsTableName != appconfig.DefaultLeadsTableName {
		ignored = append(ignored, "LEADS_TABLE_NAME")
	}
	if cfg.RateTableName != "" && cfg.RateTableName != appconfig.DefaultRateTableName {
		ignored = append(ignored, "RATE_TABLE_NAME")
	}
	return ignored
}

func buildRedisStores(ctx context.Context, cfg *appconfig.Config, target storage.Target, logger *logging.Logger) (*Stores, error) {
	opts, err := redis.ParseURL(target.URL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("bootstrap: redis ping: %w", err)
	}
	logger.Info("redis storage ready", "addr", opts.Addr)
	return &Stores{
		Kind:    target.Kind,
		Leads:   leads.NewRedisRepository(client, cfg.LeadsTableName),
		Buckets: ratelimit.NewRedisStore(client, cfg.RateTableName),
		closers: []func(){func() { _ = client.Close() }},
	}, nil
}
