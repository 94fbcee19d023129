package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

func ConnString(host, port, user, password, dbName string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbName)
}

func Open(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return db, nil
}

type NamespaceStore struct {
	db *sql.DB
}

func NewNamespaceStore(db *sql.DB) *NamespaceStore {
	return &NamespaceStore{
		db: db,
	}
}

func (s *NamespaceStore) Load(ctx context.Context, identity string) (map[string]json.RawMessage, error) {
	query := `
		SELECT data
		FROM ballot_namespaces
		WHERE identity = $1
	`
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, identity).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get namespace: %w", err)
	}

	ns := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &ns); err != nil {
		return nil, fmt.Errorf("namespace of %s: %w: %w", identity, domain.ErrCorruptNamespace, err)
	}
	return ns, nil
}

func (s *NamespaceStore) Save(ctx context.Context, identity string, namespace map[string]json.RawMessage) error {
	raw, err := json.Marshal(namespace)
	if err != nil {
		return fmt.Errorf("failed to encode namespace: %w", err)
	}

	query := `
		INSERT INTO ballot_namespaces (identity, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (identity) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, identity, string(raw)); err != nil {
		return fmt.Errorf("failed to save namespace: %w", err)
	}
	return nil
}
