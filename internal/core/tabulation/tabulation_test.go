package tabulation

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

// ballots builds records from per-voter preference lists.
func ballots(prefs ...[]string) []domain.VoteRecord {
	var records []domain.VoteRecord
	for v, list := range prefs {
		for rank, response := range list {
			records = append(records, domain.VoteRecord{
				QuestionID:         1,
				Response:           response,
				Ranking:            rank,
				VoterChitNumber:    strconv.Itoa(1000 + v),
				ResponseChitNumber: strconv.Itoa(5000 + 10*v + rank),
			})
		}
	}
	return records
}

func TestSingleChoiceCounts(t *testing.T) {
	options := []domain.ResponseOption{"yes", "no", "abstain"}
	got := SingleChoice(options, ballots([]string{"yes"}, []string{"yes"}, []string{"no"}, []string{"yes"}))

	assert.Equal(t, map[string]int{"yes": 3, "no": 1, "abstain": 0}, got.Counts)
	assert.Equal(t, 4, got.TotalVotersResponding)
}

func TestSingleChoiceCountsUnknownResponse(t *testing.T) {
	got := SingleChoice([]domain.ResponseOption{"yes"}, ballots([]string{" maybe "}))
	assert.Equal(t, map[string]int{"yes": 0, "maybe": 1}, got.Counts)
}

func TestRankedMajorityInFirstRound(t *testing.T) {
	got := RankedChoice(ballots([]string{"A", "B"}, []string{"A"}, []string{"A", "B"}, []string{"B", "A"}))

	assert.Equal(t, "A", got.Winner)
	assert.Equal(t, 4, got.TotalVotersResponding)
	require.Len(t, got.Rounds, 1)
	assert.Equal(t, []domain.CandidateTally{{Name: "A", Votes: 3}, {Name: "B", Votes: 1}}, got.Rounds[0])
}

func TestRankedEliminatesAllTiedForLast(t *testing.T) {
	got := RankedChoice(ballots(
		[]string{"A"}, []string{"A"}, []string{"A"},
		[]string{"B"}, []string{"B"},
		[]string{"C", "A"},
		[]string{"D", "B"},
	))

	require.Len(t, got.Rounds, 2)
	assert.Equal(t, []domain.CandidateTally{
		{Name: "A", Votes: 3}, {Name: "B", Votes: 2}, {Name: "C", Votes: 1}, {Name: "D", Votes: 1},
	}, got.Rounds[0])
	assert.Equal(t, []domain.CandidateTally{{Name: "A", Votes: 4}, {Name: "B", Votes: 3}}, got.Rounds[1])
	assert.Equal(t, "A", got.Winner)
}

func TestRankedTieForFirstIsNotAWin(t *testing.T) {
	got := RankedChoice(ballots([]string{"A"}, []string{"B"}))

	assert.Empty(t, got.Winner)
	require.Len(t, got.Rounds, 1)
	assert.Equal(t, 2, got.TotalVotersResponding)
}

func TestRankedMajorityCountsExhaustedBallots(t *testing.T) {
	got := RankedChoice(ballots([]string{"A"}, []string{"A"}, []string{"B"}, []string{"C"}, []string{"D"}))

	assert.Empty(t, got.Winner)
	require.GreaterOrEqual(t, len(got.Rounds), 2)
	assert.Equal(t, []domain.CandidateTally{{Name: "A", Votes: 2}}, got.Rounds[1])
	assert.Equal(t, 5, got.TotalVotersResponding)
}

func TestRankedNoVoters(t *testing.T) {
	got := RankedChoice(nil)
	assert.Empty(t, got.Winner)
	assert.Empty(t, got.Rounds)
	assert.Zero(t, got.TotalVotersResponding)
}

func TestRankedIgnoresRecordOrder(t *testing.T) {
	records := ballots(
		[]string{"A", "C", "B"}, []string{"B", "C"}, []string{"C", "B", "A"},
		[]string{"A", "B"}, []string{"C", "A"}, []string{"B", "A", "C"},
		[]string{"D", "C"},
	)
	want := RankedChoice(records)

	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		shuffled := append([]domain.VoteRecord(nil), records...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, RankedChoice(shuffled))
	}
}
