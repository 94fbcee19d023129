package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceStore(t *testing.T) {
	s := NewNamespaceStore()
	ctx := context.Background()

	ns, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, ns)

	ns["ballot.1"] = json.RawMessage(`{"state":"DECIDED"}`)
	require.NoError(t, s.Save(ctx, "alice", ns))

	got, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"DECIDED"}`, string(got["ballot.1"]))

	other, err := s.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, other)
}
