package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"relay_bot/internal/storage"
	"relay_bot/migrations"
)

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/bot.db"), "path to sqlite database")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] <command>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  up             Migrate to the latest version")
		fmt.Fprintln(os.Stderr, "  up-one         Migrate one version up")
		fmt.Fprintln(os.Stderr, "  down           Roll back one version")
		fmt.Fprintln(os.Stderr, "  status         Show migration status")
		fmt.Fprintln(os.Stderr, "  version        Show current version")
		fmt.Fprintln(os.Stderr, "  reset          Roll back all migrations")
		fmt.Fprintln(os.Stderr, "  import <file>  Import a legacy database.json")
		fmt.Fprintln(os.Stderr, "  show           Summarize the stored document")
		os.Exit(1)
	}

	cmd := args[0]
	switch cmd {
	case "import":
		if len(args) < 2 {
			log.Fatal("usage: migrate import <database.json>")
		}
		if err := importLegacy(*dbPath, args[1]); err != nil {
			log.Fatalf("import: %v", err)
		}
		return
	case "show":
		if err := show(*dbPath); err != nil {
			log.Fatalf("show: %v", err)
		}
		return
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatalf("set dialect: %v", err)
	}

	switch cmd {
	case "up":
		err = goose.Up(db, ".")
	case "up-one":
		err = goose.UpByOne(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	case "version":
		err = goose.Version(db, ".")
	case "reset":
		err = goose.Reset(db, ".")
	default:
		log.Fatalf("unknown command: %s", cmd)
	}

	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

// importLegacy upgrades a JSON document and stores it in the database,
// replacing whatever was stored before.
func importLegacy(dbPath, jsonPath string) error {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("read legacy file: %w", err)
	}
	doc, err := storage.Decode(data)
	if err != nil {
		return err
	}

	store, err := storage.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Save(context.Background(), doc); err != nil {
		return err
	}
	fmt.Printf("imported %d groups and %d users from %s\n", len(doc.Groups), len(doc.Users), jsonPath)
	return nil
}

func show(dbPath string) error {
	ctx := context.Background()
	store, err := storage.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	doc, err := store.Load(ctx)
	if err != nil {
		return err
	}
	updated, err := store.UpdatedAt(ctx)
	if err != nil {
		return err
	}

	active := 0
	for _, g := range doc.Groups {
		if g.Active {
			active++
		}
	}
	fmt.Printf("groups:  %d (%d active)\n", len(doc.Groups), active)
	fmt.Printf("users:   %d\n", len(doc.Users))
	fmt.Printf("ads:     active=%v sent=%d/%d every %d min\n", doc.Ads.Active, doc.Ads.Sent, doc.Ads.Limit, doc.Ads.IntervalMinutes)
	if updated.IsZero() {
		fmt.Println("updated: never")
	} else {
		fmt.Printf("updated: %s\n", updated.Format(time.RFC3339))
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
