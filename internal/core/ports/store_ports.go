package ports

import (
	"context"
	"encoding/json"
)

// NamespaceStore keeps one JSON object per voter identity. Save replaces the
// whole namespace; there is no locking between writers.
type NamespaceStore interface {
	Load(ctx context.Context, identity string) (map[string]json.RawMessage, error)
	Save(ctx context.Context, identity string, namespace map[string]json.RawMessage) error
}
