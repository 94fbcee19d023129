package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/blindpoll/internal/adapters/authority/authoritytest"
	"github.com/vncsmyrnk/blindpoll/internal/adapters/authority/rest"
	"github.com/vncsmyrnk/blindpoll/internal/core/ballot"
	"github.com/vncsmyrnk/blindpoll/internal/core/chit"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

func setup(t *testing.T) (*authoritytest.Authority, *rest.Client) {
	t.Helper()
	a, err := authoritytest.New()
	require.NoError(t, err)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	token, err := a.IssueToken("carol")
	require.NoError(t, err)
	return a, rest.New(srv.URL+"/", token, 5*time.Second, zap.NewNop())
}

func TestFullProtocolOverHTTP(t *testing.T) {
	a, c := setup(t)
	ctx := context.Background()
	id, err := a.AddQuestion("Best editor?", domain.QuestionTypeRankedChoice, "vim", "emacs", "nano")
	require.NoError(t, err)

	key, err := c.GetKeys(ctx)
	require.NoError(t, err)
	assert.True(t, key.Valid())

	open, err := c.OpenQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	q := open[0]
	assert.Equal(t, domain.QuestionTypeRankedChoice, q.Type)
	assert.Equal(t, []string{"vim", "emacs", "nano"}, q.OptionTexts())
	assert.True(t, q.Key.Valid())

	b, err := ballot.New(q, nil)
	require.NoError(t, err)
	_, err = b.AddChoice("nano")
	require.NoError(t, err)
	_, err = b.AddChoice("vim")
	require.NoError(t, err)

	requests, err := b.PrepareSigning(nil, key)
	require.NoError(t, err)
	for _, r := range requests {
		var signed string
		if r.Chit.Kind == chit.KindPersonal {
			signed, err = c.SignPersonalChit(ctx, id, r.Blinded)
		} else {
			signed, err = c.SignResponseChit(ctx, id, r.Blinded)
		}
		require.NoError(t, err)
		require.NoError(t, r.Chit.AcceptSigned(signed))
	}
	require.True(t, b.AreAllChitsSigned())

	payloads, err := b.GeneratePayload()
	require.NoError(t, err)
	require.NoError(t, c.VoteRanked(ctx, id, payloads))
	require.NoError(t, b.MarkSubmitted())
	require.NoError(t, b.MarkAcknowledged())

	records, err := c.VerificationRecords(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, id, records[0].QuestionID)

	v := b.CheckRecords(records)
	assert.Equal(t, ballot.OutcomeVerified, v.Outcome)
}

func TestStatusMapping(t *testing.T) {
	a, c := setup(t)
	ctx := context.Background()
	id, err := a.AddQuestion("Q", domain.QuestionTypeSingle, "a", "b")
	require.NoError(t, err)

	_, err = c.GetQuestion(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	a.Fail(authoritytest.OpSign, domain.ErrUnauthorized)
	_, err = c.SignResponseChit(ctx, id, "abc")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	a.Fail(authoritytest.OpVerify, domain.ErrAuthorityUnavailable)
	_, err = c.VerificationRecords(ctx, id)
	assert.ErrorIs(t, err, domain.ErrAuthorityUnavailable)

	a.Close(id)
	_, err = c.SignPersonalChit(ctx, id, "abc")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	err = c.Vote(ctx, id, domain.VotePayload{})
	assert.ErrorIs(t, err, domain.ErrGone)

	q, err := c.GetQuestion(ctx, id)
	require.NoError(t, err)
	assert.True(t, q.Closed())
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	a, err := authoritytest.New()
	require.NoError(t, err)
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	c := rest.New(srv.URL, "", time.Second, zap.NewNop())
	_, err = c.GetKeys(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUnreachableAuthority(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := rest.New(url, "t", time.Second, zap.NewNop())
	_, err := c.OpenQuestions(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthorityUnavailable)
}

func TestRecordAcceptsFlatQuestionID(t *testing.T) {
	r := rest.RecordDTO{QuestionID: 5, Response: "x", VoterChitNumber: "1", ResponseChitNumber: "2"}
	assert.Equal(t, int64(5), r.ToDomain().QuestionID)
}

func TestIdentityFromToken(t *testing.T) {
	a, err := authoritytest.New()
	require.NoError(t, err)
	token, err := a.IssueToken("dave")
	require.NoError(t, err)

	identity, err := rest.IdentityFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dave", identity)

	_, err = rest.IdentityFromToken("not-a-token")
	assert.Error(t, err)
}
