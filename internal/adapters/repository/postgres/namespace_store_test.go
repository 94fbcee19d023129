package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(ctx)
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, applyMigrations(db))
	return db
}

func applyMigrations(db *sql.DB) error {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}
		content, err := os.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(content)); err != nil {
			return err
		}
	}
	return nil
}

func TestNamespaceStore(t *testing.T) {
	db := setupDB(t)
	s := NewNamespaceStore(db)
	ctx := context.Background()

	ns, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, ns)

	require.NoError(t, s.Save(ctx, "alice", map[string]json.RawMessage{
		"ballot.1": json.RawMessage(`{"state":"UNDECIDED"}`),
	}))
	require.NoError(t, s.Save(ctx, "alice", map[string]json.RawMessage{
		"ballot.1": json.RawMessage(`{"state":"DECIDED"}`),
		"ballot.2": json.RawMessage(`{"state":"UNDECIDED"}`),
	}))

	ns, err = s.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, ns, 2)
	assert.JSONEq(t, `{"state":"DECIDED"}`, string(ns["ballot.1"]))

	_, err = db.Exec(`INSERT INTO ballot_namespaces (identity, data) VALUES ('bob', '[1,2]')`)
	require.NoError(t, err)
	_, err = s.Load(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrCorruptNamespace)
}
