package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/blindpoll/internal/core/ballot"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
)

// ballotRepository reads and writes ballots inside the voter's namespace.
// Every save is a read-modify-write of the whole namespace, serialized by mu
// so ballots signing concurrently do not overwrite each other.
type ballotRepository struct {
	store    ports.NamespaceStore
	identity string
	random   io.Reader
	l        *zap.Logger

	mu sync.Mutex
}

func newBallotRepository(store ports.NamespaceStore, identity string, random io.Reader, l *zap.Logger) *ballotRepository {
	return &ballotRepository{store: store, identity: identity, random: random, l: l}
}

func (r *ballotRepository) namespace(ctx context.Context) (map[string]json.RawMessage, error) {
	ns, err := r.store.Load(ctx, r.identity)
	if errors.Is(err, domain.ErrCorruptNamespace) {
		r.l.Warn("discarding corrupt ballot namespace", zap.String("identity", r.identity), zap.Error(err))
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ballot namespace: %w", err)
	}
	if ns == nil {
		ns = map[string]json.RawMessage{}
	}
	return ns, nil
}

// LoadOrCreate restores the stored ballot for q, or starts a fresh one when
// nothing usable is stored.
func (r *ballotRepository) LoadOrCreate(ctx context.Context, q *domain.Question) (*ballot.Ballot, bool, error) {
	r.mu.Lock()
	ns, err := r.namespace(ctx)
	r.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	if data, ok := ns[ballot.Key(q.ID)]; ok {
		b, err := ballot.Restore(q, data)
		if err == nil {
			return b, false, nil
		}
		r.l.Warn("stored ballot unusable, starting fresh",
			zap.Int64("question_id", q.ID),
			zap.Error(err))
	}
	b, err := ballot.New(q, r.random)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create ballot: %w", err)
	}
	return b, true, nil
}

func (r *ballotRepository) Save(ctx context.Context, b *ballot.Ballot) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode ballot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ns, err := r.namespace(ctx)
	if err != nil {
		return err
	}
	ns[ballot.Key(b.Question().ID)] = data
	if err := r.store.Save(ctx, r.identity, ns); err != nil {
		return fmt.Errorf("failed to save ballot namespace: %w", err)
	}
	return nil
}
