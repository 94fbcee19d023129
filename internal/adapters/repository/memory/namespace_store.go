// Package memory keeps ballot namespaces in process memory.
package memory

import (
	"context"
	"encoding/json"
	"maps"
	"sync"
)

type NamespaceStore struct {
	mu   sync.Mutex
	data map[string]map[string]json.RawMessage
}

func NewNamespaceStore() *NamespaceStore {
	return &NamespaceStore{data: make(map[string]map[string]json.RawMessage)}
}

func (s *NamespaceStore) Load(ctx context.Context, identity string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := make(map[string]json.RawMessage, len(s.data[identity]))
	for k, v := range s.data[identity] {
		ns[k] = append(json.RawMessage(nil), v...)
	}
	return ns, nil
}

func (s *NamespaceStore) Save(ctx context.Context, identity string, namespace map[string]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[identity] = maps.Clone(namespace)
	return nil
}
