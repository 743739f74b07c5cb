package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "modernc.org/sqlite"

	"grocery_bot/migrations"
)

var descriptions = map[string]string{
	"up":      "Migrate to the latest version",
	"up-one":  "Migrate one version up",
	"down":    "Roll back one version",
	"status":  "Show migration status",
	"version": "Show current version",
	"reset":   "Roll back all migrations",
}

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/grocery.db"), "path to sqlite database")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] <command>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Commands:")
		for _, name := range migrations.Commands {
			fmt.Fprintf(os.Stderr, "  %-10s  %s\n", name, descriptions[name])
		}
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Command(db, args[0]); err != nil {
		log.Fatal(err)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv("GROCERY_" + key); v != "" {
		return v
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
