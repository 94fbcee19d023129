package authoritytest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/blindpoll/internal/core/ballot"
	"github.com/vncsmyrnk/blindpoll/internal/core/chit"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
)

func signedBallot(t *testing.T, authority ports.Authority, id int64, response string) *ballot.Ballot {
	t.Helper()
	ctx := context.Background()
	key, err := authority.GetKeys(ctx)
	require.NoError(t, err)
	q, err := authority.GetQuestion(ctx, id)
	require.NoError(t, err)
	b, err := ballot.New(q, nil)
	require.NoError(t, err)
	_, err = b.SelectResponse(response)
	require.NoError(t, err)

	requests, err := b.PrepareSigning(nil, key)
	require.NoError(t, err)
	for _, r := range requests {
		var signed string
		if r.Chit.Kind == chit.KindPersonal {
			signed, err = authority.SignPersonalChit(ctx, id, r.Blinded)
		} else {
			signed, err = authority.SignResponseChit(ctx, id, r.Blinded)
		}
		require.NoError(t, err)
		require.NoError(t, r.Chit.AcceptSigned(signed))
	}
	return b
}

func TestVoteIsRecordedAnonymously(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	id, err := a.AddQuestion("Lunch?", domain.QuestionTypeSingle, "pizza", "salad")
	require.NoError(t, err)

	voter := a.As("alice")
	b := signedBallot(t, voter, id, "salad")
	payloads, err := b.GeneratePayload()
	require.NoError(t, err)
	require.NoError(t, voter.Vote(context.Background(), id, payloads[0]))
	require.NoError(t, voter.Vote(context.Background(), id, payloads[0]))

	records := a.Records(id)
	require.Len(t, records, 1)
	assert.Equal(t, "salad", records[0].Response)
	assert.Equal(t, b.PersonalChit().Number.String(), records[0].VoterChitNumber)
	assert.Equal(t, 2, a.Calls(OpVote))
}

func TestSecondPersonalChitIsRefused(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	id, err := a.AddQuestion("Lunch?", domain.QuestionTypeSingle, "pizza", "salad")
	require.NoError(t, err)

	voter := a.As("alice")
	signedBallot(t, voter, id, "pizza")

	q, err := voter.GetQuestion(context.Background(), id)
	require.NoError(t, err)
	again, err := ballot.New(q, nil)
	require.NoError(t, err)
	requests, err := again.PrepareSigning(nil, domain.PublicKey{})
	require.Error(t, err)
	assert.Nil(t, requests)

	key, err := voter.GetKeys(context.Background())
	require.NoError(t, err)
	requests, err = again.PrepareSigning(nil, key)
	require.NoError(t, err)
	_, err = voter.SignPersonalChit(context.Background(), id, requests[0].Blinded)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestVoteRejectsBadSignatureAndClosedQuestion(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	id, err := a.AddQuestion("Lunch?", domain.QuestionTypeSingle, "pizza", "salad")
	require.NoError(t, err)
	voter := a.As("bob")
	b := signedBallot(t, voter, id, "pizza")
	payloads, err := b.GeneratePayload()
	require.NoError(t, err)

	forged := payloads[0]
	forged.ResponseChit = "1 1 salad"
	assert.ErrorIs(t, voter.Vote(context.Background(), id, forged), domain.ErrForbidden)

	a.Close(id)
	assert.ErrorIs(t, voter.Vote(context.Background(), id, payloads[0]), domain.ErrGone)
	open, err := voter.OpenQuestions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestInjectedFailuresArePoppedInOrder(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	a.Fail(OpKeys, domain.ErrUnauthorized)

	_, err = a.As("x").GetKeys(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = a.As("x").GetKeys(context.Background())
	assert.NoError(t, err)
}
