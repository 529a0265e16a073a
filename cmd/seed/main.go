package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kiwari-pos/bar/internal/config"
	"github.com/kiwari-pos/bar/internal/enum"
	"github.com/kiwari-pos/bar/internal/ledger"
	"github.com/kiwari-pos/bar/internal/report"
)

func main() {
	// CLI flags
	csvPath := flag.String("csv", "", "sales_report.csv to import into the ledger")
	date := flag.String("date", "", "Business date of the CSV rows (YYYY-MM-DD, default today)")
	migrateOnly := flag.Bool("migrate-only", false, "Apply migrations and exit")
	flag.Parse()

	cfg := config.Load()
	loc := cfg.Location()
	ctx := context.Background()

	if cfg.LedgerBackend == enum.LedgerBackendPostgres {
		if err := ledger.Migrate(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
		log.Println("Migrations applied")
	}
	if *migrateOnly {
		return
	}

	if *csvPath == "" {
		*csvPath = os.Getenv("SEED_CSV")
	}
	if *csvPath == "" {
		log.Fatal("Nothing to seed: pass -csv or set SEED_CSV")
	}
	if cfg.LedgerBackend == enum.LedgerBackendMemory {
		log.Println("WARNING: seeding the memory ledger has no lasting effect")
	}

	day := time.Now().In(loc)
	if *date != "" {
		var err error
		day, err = time.ParseInLocation("2006-01-02", *date, loc)
		if err != nil {
			log.Fatalf("Invalid -date %q: %v", *date, err)
		}
	}

	records, err := readCSV(*csvPath, day, loc)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *csvPath, err)
	}

	store, closeStore, err := ledger.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to open %s ledger: %v", cfg.LedgerBackend, err)
	}
	defer closeStore()

	for i, rec := range records {
		if err := store.Append(ctx, rec); err != nil {
			log.Fatalf("Failed to append row %d of %d: %v", i+1, len(records), err)
		}
	}

	log.Println("Seed completed successfully")
	log.Printf("Imported %d sales dated %s into the %s ledger", len(records), day.Format("2006-01-02"), cfg.LedgerBackend)
}

// readCSV parses an exported report and places every row on day.
func readCSV(path string, day time.Time, loc *time.Location) ([]ledger.SaleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := report.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	y, m, d := day.Date()
	for i := range records {
		t := records[i].Timestamp
		records[i].Timestamp = time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, loc)
	}
	return records, nil
}
