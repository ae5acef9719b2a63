package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/corkboard/go/internal/dbconfig"
	"github.com/mcdev12/corkboard/go/internal/migrations"
)

// Document mirrors the fixture JSON structure
type Document struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
}

func main() {
	path := "go/internal/assets/documents.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON fixture
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig and make sure the schema exists
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate: %v\n", err)
		os.Exit(1)
	}

	// 3) Insert placeholder documents and offline users
	var (
		inserted int
		skipped  int
		users    int
		errs     int
	)

	for _, d := range docs {
		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO documents (name, state)
            VALUES ($1, ''::bytea)
            ON CONFLICT (name) DO NOTHING
        `, d.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting document %s: %v\n", d.Name, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}

		for _, userID := range d.Users {
			cmdTag, err := pool.Exec(ctx, `
                INSERT INTO users (id, document_name, online)
                VALUES ($1, $2, FALSE)
                ON CONFLICT (id, document_name) DO NOTHING
            `, userID, d.Name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error inserting user %s for %s: %v\n", userID, d.Name, err)
				errs++
				continue
			}
			users += int(cmdTag.RowsAffected())
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Documents seed complete: %d total, %d inserted, %d skipped, %d users, %d errors\n",
		len(docs), inserted, skipped, users, errs,
	)
}
