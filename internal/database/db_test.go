package database

import (
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDSN(t *testing.T) {
	dsn := Options{User: "cabins", Password: "s3cret", Host: "db", Port: "3306", Name: "booking"}.DSN()

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "cabins", cfg.User)
	assert.Equal(t, "s3cret", cfg.Passwd)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "booking", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "UTC", cfg.Loc.String())
}

func TestStatements(t *testing.T) {
	stmts := Statements()
	require.Len(t, stmts, 6)
	for _, s := range stmts {
		assert.True(t, strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS"), s)
	}
	assert.Contains(t, stmts[2], "reservations")
	assert.Contains(t, stmts[5], "uq_listing_ref")
}
