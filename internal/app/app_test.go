package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/blindpoll/internal/adapters/authority/authoritytest"
	"github.com/vncsmyrnk/blindpoll/internal/adapters/prompt"
	"github.com/vncsmyrnk/blindpoll/internal/config"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
)

func testConfig(t *testing.T, a *authoritytest.Authority, driver string) *config.Config {
	t.Helper()
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	token, err := a.IssueToken("dave")
	require.NoError(t, err)
	return &config.Config{
		AuthorityURL:     srv.URL,
		AuthorityToken:   token,
		AuthorityTimeout: 5 * time.Second,
		RankedSubmission: "batch",
		StoreDriver:      driver,
		BadgerDir:        t.TempDir(),
	}
}

func TestVoteThroughWiredApp(t *testing.T) {
	for _, driver := range []string{"memory", "badger"} {
		t.Run(driver, func(t *testing.T) {
			a, err := authoritytest.New()
			require.NoError(t, err)
			id, err := a.AddQuestion("Rename the project?", domain.QuestionTypeSingle, "yes", "no")
			require.NoError(t, err)

			ctx := context.Background()
			app, err := New(ctx, testConfig(t, a, driver), prompt.NewQueue(true), zap.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { require.NoError(t, app.Close()) })
			assert.Equal(t, "dave", app.Session.Identity)

			require.NoError(t, app.Voter.Start(ctx))
			_, err = app.Voter.Select(ctx, id, "no")
			require.NoError(t, err)
			v, err := app.Voter.Vote(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, domain.BallotVerified, v.State)

			result, err := app.Reports.Results(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 1, result.Single.Counts["no"])
		})
	}
}

func TestIdentityOverride(t *testing.T) {
	cfg := &config.Config{VoterIdentity: "erin", StoreDriver: "memory"}
	identity, err := voterIdentity(cfg)
	require.NoError(t, err)
	assert.Equal(t, "erin", identity)

	_, err = voterIdentity(&config.Config{})
	assert.Error(t, err)

	_, err = voterIdentity(&config.Config{AuthorityToken: "not-a-jwt"})
	assert.Error(t, err)
}

func TestUnknownStoreDriver(t *testing.T) {
	_, err := New(context.Background(), &config.Config{VoterIdentity: "erin", StoreDriver: "floppy"}, prompt.NewQueue(true), zap.NewNop())
	assert.Error(t, err)
}

func TestHandlerServesSession(t *testing.T) {
	a, err := authoritytest.New()
	require.NoError(t, err)
	app, err := New(context.Background(), testConfig(t, a, "memory"), prompt.NewQueue(true), zap.NewNop())
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler(prompt.NewQueue(true)))
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + "/api/session")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session ports.SessionView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	assert.Equal(t, app.Session.ID, session.ID)
	assert.Equal(t, "dave", session.Identity)
}

func TestServeStopsWithContext(t *testing.T) {
	app, err := New(context.Background(), &config.Config{VoterIdentity: "erin", StoreDriver: "memory"}, prompt.NewQueue(true), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, "127.0.0.1:0", prompt.NewQueue(true)) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
