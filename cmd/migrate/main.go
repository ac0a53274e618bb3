package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/golang-migrate/migrate/v4"

	"github.com/blueflare-energy/leadcapture/cmd/mainconfig"
	appconfig "github.com/blueflare-energy/leadcapture/internal/config"
	"github.com/blueflare-energy/leadcapture/internal/storage"
)

// Usage:
//
//	migrate              apply pending migrations / create tables
//	migrate down         roll back every migration (postgres)
//	migrate force <v>    mark the schema as version v (postgres)
func main() {
	cfg := appconfig.Load()
	target, err := storage.ParseURL(cfg.StorageURL)
	if err != nil {
		log.Fatalf("storage url: %v", err)
	}

	switch target.Kind {
	case storage.KindPostgres:
		if err := migratePostgres(target.URL, os.Args[1:]); err != nil {
			log.Fatal(err)
		}
	case storage.KindDynamoDB:
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := ensureDynamoTables(ctx, cfg, target); err != nil {
			log.Fatal(err)
		}
	default:
		fmt.Printf("nothing to migrate for %s storage\n", target.Kind)
	}
}

func migratePostgres(databaseURL string, args []string) error {
	m, err := storage.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "force":
		if len(args) < 2 {
			return errors.New("usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
		fmt.Printf("forced version to %d\n", version)
		return nil
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Println("migrations rolled back")
		return nil
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up: %w", err)
		}
		fmt.Println("migrations complete")
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func ensureDynamoTables(ctx context.Context, cfg *appconfig.Config, target storage.Target) error {
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if target.Endpoint != "" {
			o.BaseEndpoint = aws.String(target.Endpoint)
		}
	})
	for table, hashKey := range map[string]string{
		cfg.LeadsTableName: "id",
		cfg.RateTableName:  "rowKey",
	} {
		if err := storage.EnsureTable(ctx, client, table, hashKey); err != nil {
			return err
		}
		fmt.Printf("table %s ready\n", table)
	}
	return nil
}
