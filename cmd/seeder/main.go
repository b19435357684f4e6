// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medkitapp/medkit-be/internal/adapters/db"
	"github.com/medkitapp/medkit-be/internal/core/domain"
)

// catalog is the pool of realistic medicine names the seeder draws from.
var catalog = []struct {
	name  string
	aisle string
}{
	{"Paracetamol 500mg", "A1"},
	{"Ibuprofen 400mg", "A1"},
	{"Aspirin 100mg", "A1"},
	{"Amoxicillin 250mg", "B2"},
	{"Azithromycin 500mg", "B2"},
	{"Ciprofloxacin 500mg", "B2"},
	{"Cetirizine 10mg", "C1"},
	{"Loratadine 10mg", "C1"},
	{"Omeprazole 20mg", "C3"},
	{"Pantoprazole 40mg", "C3"},
	{"Metformin 850mg", "D1"},
	{"Atorvastatin 20mg", "D1"},
	{"Amlodipine 5mg", "D2"},
	{"Losartan 50mg", "D2"},
	{"Salbutamol inhaler", "E1"},
	{"Budesonide inhaler", "E1"},
	{"Diazepam 5mg", "F1"},
	{"Sertraline 50mg", "F1"},
	{"Vitamin D3 1000IU", "G1"},
	{"Folic acid 5mg", "G1"},
}

func main() {
	// Parse flags
	var (
		count    = flag.Int("count", len(catalog), "Number of medicines to seed")
		withUser = flag.String("user", "seeder", "User id recorded on seeded history entries")
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun   = flag.Bool("dry-run", false, "Preview changes without modifying database")
		migrate  = flag.Bool("migrate", true, "Run schema migrations before seeding")
	)
	flag.Parse()

	// Setup logging
	var slogLevel slog.Level
	switch *logLevel {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)

	// Database connection
	dbURL := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "medkit"),
		getEnv("DB_PASSWORD", "medkit_dev_2025"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "medkit_stock"),
		getEnv("DB_SSL_MODE", "disable"),
	)

	ctx := context.Background()

	medicines := buildMedicines(*count)

	if *dryRun {
		for _, m := range medicines {
			fmt.Printf("DRY RUN: would insert %s (stock %d, aisle %s)\n", m.Name, m.Stock, m.Aisle)
		}
		fmt.Printf("\n[DRY RUN] %d medicines, no changes were made to the database\n", len(medicines))
		return
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if *migrate {
		if err := db.RunMigrations(ctx, dbURL, logger); err != nil {
			logger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	inserted, err := seedMedicines(ctx, pool, medicines, *withUser)
	if err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Summary
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEEDING OPERATION SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Medicines Seeded: %d\n", inserted)
	fmt.Printf("Medicines Skipped (already present): %d\n", len(medicines)-inserted)

	logger.Info("seed operation completed",
		slog.Int("medicines_created", inserted),
		slog.Int("medicines_skipped", len(medicines)-inserted))
}

// buildMedicines draws count medicines from the catalog, wrapping around
// with a numeric suffix when count exceeds the catalog size.
func buildMedicines(count int) []domain.Medicine {
	medicines := make([]domain.Medicine, 0, count)
	for i := 0; i < count; i++ {
		entry := catalog[i%len(catalog)]
		name := entry.name
		if i >= len(catalog) {
			name = fmt.Sprintf("%s #%d", entry.name, i/len(catalog)+1)
		}

		m := domain.Medicine{
			Name:  name,
			Stock: rand.Intn(200),
			Aisle: entry.aisle,
		}
		m.PrepareForStorage()
		medicines = append(medicines, m)
	}
	return medicines
}

// seedMedicines inserts medicines and a matching creation history entry in
// a single batch. Existing rows (same name) are left untouched.
func seedMedicines(ctx context.Context, pool *pgxpool.Pool, medicines []domain.Medicine, userID string) (int, error) {
	batch := &pgx.Batch{}
	for _, m := range medicines {
		batch.Queue(`
			INSERT INTO medicines (id, name, name_lc, stock, aisle)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING`,
			m.ID, m.Name, m.NameLC, m.Stock, m.Aisle)
		batch.Queue(`
			INSERT INTO history (id, medicine_id, user_id, action, details, created_at)
			SELECT $1, $2::uuid, $3, $4, $5, $6
			WHERE EXISTS (SELECT 1 FROM medicines WHERE id = $2::uuid)`,
			uuid.NewString(), m.ID, userID, string(domain.ActionCreated), "Seeded", time.Now())
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("batch insert failed at statement %d: %w", i, err)
		}
		// Even statements are the medicine inserts
		if i%2 == 0 && tag.RowsAffected() > 0 {
			inserted++
		}
	}

	return inserted, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
