package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"unilib/internal/app"
	"unilib/internal/storage/ch"
	"unilib/internal/storage/stubs"
	"unilib/migrations"
)

const (
	devUser     = "default"
	devPassword = "devpassword"
	devDatabase = "default"
)

func main() {
	ctx := context.Background()

	log.Println("Starting ClickHouse testcontainer...")

	clickhouseContainer, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:latest",
		clickhouse.WithUsername(devUser),
		clickhouse.WithPassword(devPassword),
		clickhouse.WithDatabase(devDatabase),
	)
	if err != nil {
		log.Fatalf("Failed to start ClickHouse container: %v", err)
	}

	// Ensure container cleanup on exit
	defer func() {
		log.Println("Stopping ClickHouse container...")
		if err := clickhouseContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate container: %v", err)
		}
	}()

	host, err := clickhouseContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	if err != nil {
		log.Fatalf("Failed to get container port: %v", err)
	}

	log.Printf("ClickHouse started at %s:%s", host, port.Port())

	if err := migrate(host, port.Port()); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}
	if err := seed(ctx, host, port.Int()); err != nil {
		log.Fatalf("Failed to load demo ledger: %v", err)
	}

	os.Setenv("STORE_DRIVER", "clickhouse")
	os.Setenv("CLICKHOUSE_HOST", host)
	os.Setenv("CLICKHOUSE_PORT", port.Port())
	os.Setenv("CLICKHOUSE_DATABASE", devDatabase)
	os.Setenv("CLICKHOUSE_USER", devUser)
	os.Setenv("CLICKHOUSE_PASSWORD", devPassword)
	os.Setenv("CLICKHOUSE_USE_TLS", "false")
	os.Setenv("USE_MOCK_DB", "false")
	os.Setenv("WEBHOOK_MODE", "false")
	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", "dev")
	}
	if os.Getenv("PORT") == "" {
		os.Setenv("PORT", "8080")
	}

	if os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		log.Println("⚠️  TELEGRAM_BOT_TOKEN not set. Only the HTTP API will run.")
	} else if os.Getenv("ALLOWED_USER_IDS") == "" {
		log.Println("⚠️  ALLOWED_USER_IDS not set. The bot will not accept any commands.")
	}

	log.Println("Starting application with ClickHouse backend...")
	fmt.Println()

	application, err := app.New()
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Run handles the shutdown signal itself
	if err := application.Run(); err != nil {
		log.Printf("Application error: %v", err)
	}
}

// migrate applies the embedded ClickHouse migrations
func migrate(host, port string) error {
	dsn := fmt.Sprintf("clickhouse://%s:%s@%s:%s/%s?dial_timeout=10s", devUser, devPassword, host, port, devDatabase)
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("clickhouse"); err != nil {
		return err
	}
	return goose.Up(db, "clickhouse")
}

// seed loads the demo ledger
func seed(ctx context.Context, host string, port int) error {
	db, err := ch.NewClickHouseDB(host, port, devDatabase, devUser, devPassword, false)
	if err != nil {
		return err
	}
	defer db.Close()

	snap := stubs.DemoSnapshot()
	if err := db.Load(ctx, &snap); err != nil {
		return err
	}
	log.Printf("Loaded demo ledger: %d patrons, %d loans", len(snap.Patrons), len(snap.Loans))
	return nil
}
