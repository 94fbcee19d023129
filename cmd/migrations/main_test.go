package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFileName(t *testing.T) {
	basePath := filepath.Join("..", "..", "internal", "adapters", "repository", "postgres", "migrations")

	name, err := migrationFileName(basePath, "up")
	require.NoError(t, err)
	assert.Equal(t, "000001_create_ballot_namespaces.up.sql", name)

	content, err := migrationFileContent(basePath, "create_ballot_namespaces.down")
	require.NoError(t, err)
	assert.Contains(t, string(content), "ballot_namespaces")

	_, err = migrationFileName(basePath, "sideways")
	assert.Error(t, err)
}
