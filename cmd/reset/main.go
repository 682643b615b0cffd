// Command reset wipes all collected metrics from the database.
//
// It truncates the metrics and histogram_samples tables, leaving the schema
// in place. Intended for development and test environments.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dsn := flag.String("d", "", "database dsn")
	yes := flag.Bool("y", false, "skip confirmation")
	flag.Parse()

	if envDSN := os.Getenv("DATABASE_DSN"); envDSN != "" {
		*dsn = envDSN
	}
	if *dsn == "" {
		return fmt.Errorf("database dsn is required (use -d or DATABASE_DSN)")
	}

	if !*yes {
		fmt.Print("This will delete all collected metrics. Continue? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			log.Println("Aborted")
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return resetTables(ctx, db)
}

// resetTables truncates all metric tables in one transaction.
func resetTables(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"histogram_samples", "metrics"} {
		if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
		log.Printf("truncated %s", table)
	}
	return tx.Commit()
}
