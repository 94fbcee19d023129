// Package badger stores ballot namespaces in a badger database, one key per
// voter identity.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

const keyPrefix = "ns/"

type NamespaceStore struct {
	db *badger.DB
}

// New opens the store in dir, or in memory when dir is empty.
func New(dir string, l *zap.Logger) (*NamespaceStore, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(&badgerLogger{l: l.Sugar().With(zap.String("component", "badger"))}).
		WithLoggingLevel(badger.WARNING)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &NamespaceStore{db: db}, nil
}

func (s *NamespaceStore) Close() error {
	return s.db.Close()
}

func key(identity string) []byte {
	return []byte(keyPrefix + identity)
}

func (s *NamespaceStore) Load(ctx context.Context, identity string) (map[string]json.RawMessage, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(identity))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read namespace: %w", err)
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
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(identity), raw)
	}); err != nil {
		return fmt.Errorf("failed to write namespace: %w", err)
	}
	return nil
}

type badgerLogger struct {
	l *zap.SugaredLogger
}

func (b *badgerLogger) Errorf(format string, args ...any)   { b.l.Errorf(format, args...) }
func (b *badgerLogger) Warningf(format string, args ...any) { b.l.Warnf(format, args...) }
func (b *badgerLogger) Infof(format string, args ...any)    { b.l.Infof(format, args...) }
func (b *badgerLogger) Debugf(format string, args ...any)   { b.l.Debugf(format, args...) }
