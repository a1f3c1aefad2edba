// Command seed populates the local SQLite record store with demo
// participants, for development without the hosted API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"rollcall/internal/field"
	"rollcall/internal/seed"
	"rollcall/internal/store/local"
	"rollcall/internal/types"
)

func main() {
	path := flag.String("db", "rollcall.db", "SQLite database path")
	flag.Parse()

	if err := run(*path); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(path string) error {
	ctx := context.Background()

	st, err := local.Open(ctx, path, field.Default())
	if err != nil {
		return err
	}
	defer st.Close()

	recs, err := seed.Apply(ctx, st)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		fmt.Printf("seeded %s (%s)\n", rec.Values[types.FieldFirstName].Text, rec.ID)
	}
	return nil
}
