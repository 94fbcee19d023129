package ballot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

func castBallot(t *testing.T, qtype domain.QuestionType, choices ...string) *Ballot {
	t.Helper()
	k := newKeys(t)
	b, err := New(newQuestion(t, k, qtype, "A", "B", "C"), nil)
	require.NoError(t, err)
	for _, c := range choices {
		if qtype == domain.QuestionTypeSingle {
			_, err = b.SelectResponse(c)
		} else {
			_, err = b.AddChoice(c)
		}
		require.NoError(t, err)
	}
	signAll(t, b, k)
	_, err = b.GeneratePayload()
	require.NoError(t, err)
	require.NoError(t, b.MarkSubmitted())
	require.NoError(t, b.MarkAcknowledged())
	return b
}

func recordFor(b *Ballot, response string, ranking int) domain.VoteRecord {
	return domain.VoteRecord{
		QuestionID:         b.Question().ID,
		Response:           response,
		Ranking:            ranking,
		VoterChitNumber:    b.PersonalChit().Number.String(),
		ResponseChitNumber: b.chitFor(response).Number.String(),
	}
}

func others() []domain.VoteRecord {
	return []domain.VoteRecord{
		{QuestionID: 42, Response: "B", VoterChitNumber: "1", ResponseChitNumber: "2"},
		{QuestionID: 7, Response: "A", VoterChitNumber: "3", ResponseChitNumber: "4"},
	}
}

func TestSingleChoiceVerified(t *testing.T) {
	b := castBallot(t, domain.QuestionTypeSingle, "A")
	v := b.CheckRecords(append(others(), recordFor(b, "A", 0)))
	assert.Equal(t, OutcomeVerified, v.Outcome)
	assert.True(t, v.OK())

	b.ApplyVerification(v)
	assert.Equal(t, domain.BallotVerified, b.State())
}

func TestSingleChoiceMismatches(t *testing.T) {
	tests := []struct {
		name   string
		record func(b *Ballot) domain.VoteRecord
		want   Mismatch
	}{
		{
			name: "wrong response chit",
			record: func(b *Ballot) domain.VoteRecord {
				r := recordFor(b, "A", 0)
				r.ResponseChitNumber = "17"
				return r
			},
			want: MismatchInvalidResponseChit,
		},
		{
			name: "different response",
			record: func(b *Ballot) domain.VoteRecord {
				r := recordFor(b, "A", 0)
				r.Response = "B"
				return r
			},
			want: MismatchVotedDifferently,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := castBallot(t, domain.QuestionTypeSingle, "A")
			v := b.CheckRecords([]domain.VoteRecord{tt.record(b)})
			assert.Equal(t, OutcomeMismatch, v.Outcome)
			assert.Equal(t, tt.want, v.Mismatch)
			assert.NotEmpty(t, v.Message)

			b.ApplyVerification(v)
			assert.Equal(t, domain.BallotDecided, b.State())
		})
	}
}

func TestSingleChoiceMissingRecord(t *testing.T) {
	b := castBallot(t, domain.QuestionTypeSingle, "A")
	v := b.CheckRecords(others())
	assert.Equal(t, MismatchNotFound, v.Mismatch)
	assert.Equal(t, "Verification of vote failed.", v.Message)
}

func TestUnexpectedVoteLeavesStateAlone(t *testing.T) {
	k := newKeys(t)
	b, err := New(newQuestion(t, k, domain.QuestionTypeSingle, "A", "B", "C"), nil)
	require.NoError(t, err)

	v := b.CheckRecords([]domain.VoteRecord{recordFor(b, "B", 0)})
	assert.Equal(t, MismatchUnexpectedVote, v.Mismatch)
	b.ApplyVerification(v)
	assert.Equal(t, domain.BallotUndecided, b.State())

	v = b.CheckRecords(others())
	assert.Equal(t, OutcomeNoVote, v.Outcome)
	assert.True(t, v.OK())
}

func TestRankedVerification(t *testing.T) {
	b := castBallot(t, domain.QuestionTypeRankedChoice, "C", "A")

	v := b.CheckRecords([]domain.VoteRecord{recordFor(b, "A", 1), recordFor(b, "C", 0)})
	assert.Equal(t, OutcomeVerified, v.Outcome)

	v = b.CheckRecords([]domain.VoteRecord{recordFor(b, "C", 0)})
	assert.Equal(t, MismatchIncompleteRanking, v.Mismatch)

	v = b.CheckRecords([]domain.VoteRecord{recordFor(b, "A", 0), recordFor(b, "C", 1)})
	assert.Equal(t, OutcomeMismatch, v.Outcome)

	v = b.CheckRecords([]domain.VoteRecord{recordFor(b, "C", 0), recordFor(b, "A", 1), recordFor(b, "B", 2)})
	assert.Equal(t, MismatchVotedDifferently, v.Mismatch)

	v = b.CheckRecords(nil)
	assert.Equal(t, MismatchNotFound, v.Mismatch)
}
