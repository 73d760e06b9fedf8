package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"surveyclean/internal"
	"surveyclean/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// dropOrder lists tables children first
var dropOrder = []string{
	"column_summaries",
	"cell_edits",
	"cleaning_operations",
	"cleaning_runs",
	"cleaning_sessions",
}

func main() {
	reset := flag.Bool("reset", false, "drop all surveyclean tables before migrating")
	list := flag.Bool("list", false, "print the migration steps and exit")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: migrate [-reset] [-list] [database_url]")
		flag.PrintDefaults()
	}
	flag.Parse()

	runner := migration.NewRunner(internal.NewDefaultLogger())
	if *list {
		fmt.Printf("schema version %s\n", runner.Version())
		for i, name := range runner.Steps() {
			fmt.Printf("%2d. %s\n", i+1, name)
		}
		return
	}

	_ = godotenv.Load()
	databaseURL := os.Getenv("DATABASE_URL")
	if flag.NArg() > 0 {
		databaseURL = flag.Arg(0)
	}
	if databaseURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if *reset {
		for _, table := range dropOrder {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
				log.Printf("Warning: failed to drop table %s: %v", table, err)
			}
		}
		log.Println("Dropped surveyclean tables")
	}

	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema at version %s (%d steps)", runner.Version(), len(runner.Steps()))
}
