package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.AuthorityTimeout)
	assert.Equal(t, "positional", cfg.RankedSubmission)
	assert.Equal(t, "badger", cfg.StoreDriver)
	assert.Equal(t, "5432", cfg.Postgres.Port)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AUTHORITY_TIMEOUT", "5s")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_HOST", "db")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.AuthorityTimeout)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "db", cfg.Postgres.Host)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RANKED_SUBMISSION", "sideways")
	_, err := New()
	assert.Error(t, err)
}
