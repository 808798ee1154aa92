package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schema string

// Statements splits the embedded schema into individual statements.
func Statements() []string {
	out := make([]string, 0)
	for _, stmt := range strings.Split(schema, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EnsureSchema creates any missing table.  Every statement is idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database.EnsureSchema: statement %d: %w", i+1, err)
		}
	}
	return nil
}
