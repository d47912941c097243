package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sterling9879/Sage-IA/internal/capabilities"
	"github.com/sterling9879/Sage-IA/internal/config"
	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
	"github.com/sterling9879/Sage-IA/internal/repository/postgres"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed the model catalog")
	clearData := flag.Bool("clear-data", false, "Delete all conversations and usage logs (keep users and schema)")
	resetModels := flag.Bool("reset-models", false, "Overwrite existing catalog entries with the shipped defaults")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	switch {
	case *clearData:
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	case *schemaOnly:
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	default:
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		if err := clearChatData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	registry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load capability registry: %v", err)
	}

	modelRepo := postgres.NewModelConfigRepository(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})

	log.Println("📝 Seeding model catalog...")
	created, skipped := 0, 0
	for _, m := range registry.AllModels() {
		ok, err := seedModel(ctx, modelRepo, m, *resetModels)
		if err != nil {
			log.Printf("❌ Failed to seed model '%s': %v", m.ID, err)
			continue
		}
		if !ok {
			skipped++
			continue
		}
		created++
		log.Printf("✅ Seeded %s (%s)", m.ID, m.DisplayName)
	}

	log.Printf("🎉 Seeding complete! (%d written, %d kept)", created, skipped)
}

// seedModel writes the catalog entry for m. Existing entries keep their admin
// edits unless overwrite is set.
func seedModel(ctx context.Context, repo repositories.ModelConfigRepository, m capabilities.ModelCapabilities, overwrite bool) (bool, error) {
	if !overwrite {
		_, err := repo.Get(ctx, m.ID)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return false, err
		}
	}

	return true, repo.Upsert(ctx, &models.ModelConfig{
		ModelID:     m.ID,
		DisplayName: m.DisplayName,
		Provider:    m.Provider,
		IsEnabled:   true,
		IsFree:      m.IsFree,
		MaxTokens:   m.MaxOutput,
		SortOrder:   m.SortOrder,
	})
}

// clearChatData removes conversations (messages cascade) and usage logs and
// zeroes every counter.
func clearChatData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	stmts := []string{
		"DELETE FROM " + tables.Conversations,
		"DELETE FROM " + tables.UsageLogs,
		"UPDATE " + tables.Users + " SET messages_used = 0",
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}
