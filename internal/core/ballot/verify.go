package ballot

import (
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

type Outcome string

const (
	OutcomeVerified Outcome = "verified"
	OutcomeNoVote   Outcome = "no_vote"
	OutcomeMismatch Outcome = "mismatch"
)

type Mismatch string

const (
	MismatchUnexpectedVote      Mismatch = "unexpected_vote"
	MismatchInvalidResponseChit Mismatch = "invalid_response_chit"
	MismatchVotedDifferently    Mismatch = "voted_differently"
	MismatchIncompleteRanking   Mismatch = "incomplete_ranking"
	MismatchNotFound            Mismatch = "not_found"
)

var mismatchMessages = map[Mismatch]string{
	MismatchUnexpectedVote:      "The authority claims I voted, and I don't remember voting!",
	MismatchInvalidResponseChit: "The authority reports an invalid number for my response!",
	MismatchVotedDifferently:    "The authority claims I voted differently than I remember!",
	MismatchIncompleteRanking:   "The authority reports an incomplete ranking of my vote!",
	MismatchNotFound:            "Verification of vote failed.",
}

const verifiedMessage = "Verified!"

type Verification struct {
	Outcome  Outcome  `json:"outcome"`
	Mismatch Mismatch `json:"mismatch,omitempty"`
	Message  string   `json:"message"`
}

func (v Verification) OK() bool {
	return v.Outcome != OutcomeMismatch
}

func verified(voted bool) Verification {
	if voted {
		return Verification{Outcome: OutcomeVerified, Message: verifiedMessage}
	}
	return Verification{Outcome: OutcomeNoVote, Message: verifiedMessage}
}

func mismatch(m Mismatch) Verification {
	return Verification{Outcome: OutcomeMismatch, Mismatch: m, Message: mismatchMessages[m]}
}

// CheckRecords matches the authority's report against what this ballot
// remembers. Records of other questions and other voters are ignored.
func (b *Ballot) CheckRecords(records []domain.VoteRecord) Verification {
	var mine []domain.VoteRecord
	for _, r := range domain.RecordsForQuestion(b.question.ID, records) {
		if b.personal.MatchesNumber(r.VoterChitNumber) {
			mine = append(mine, r)
		}
	}
	return b.selection.check(b, mine)
}

// ApplyVerification records the outcome: a confirmed vote becomes VERIFIED,
// a mismatch on a cast ballot reverts it to DECIDED for a retry.
func (b *Ballot) ApplyVerification(v Verification) {
	if !b.IVoted() {
		return
	}
	if v.Outcome == OutcomeVerified {
		b.state = domain.BallotVerified
		return
	}
	if v.Outcome == OutcomeMismatch {
		b.RevertToDecided()
	}
}

func recordResponse(r domain.VoteRecord) string {
	return domain.NewResponseOption(r.Response).Text()
}

func (s *singleSelection) check(b *Ballot, mine []domain.VoteRecord) Verification {
	voted := b.IVoted()
	found := false
	for _, r := range mine {
		if !voted {
			return mismatch(MismatchUnexpectedVote)
		}
		c := b.chitFor(s.sent)
		if c == nil || !c.MatchesNumber(r.ResponseChitNumber) {
			return mismatch(MismatchInvalidResponseChit)
		}
		if recordResponse(r) != s.sent {
			return mismatch(MismatchVotedDifferently)
		}
		found = true
	}
	if voted != found {
		return mismatch(MismatchNotFound)
	}
	return verified(voted)
}

func (s *rankedSelection) check(b *Ballot, mine []domain.VoteRecord) Verification {
	voted := b.IVoted()
	if !voted {
		if len(mine) > 0 {
			return mismatch(MismatchUnexpectedVote)
		}
		return verified(false)
	}
	if len(mine) == 0 {
		return mismatch(MismatchNotFound)
	}

	byRank := make(map[int]domain.VoteRecord, len(mine))
	for _, r := range mine {
		if r.Ranking < 0 || r.Ranking >= len(s.sent) {
			return mismatch(MismatchVotedDifferently)
		}
		if prev, ok := byRank[r.Ranking]; ok && prev != r {
			return mismatch(MismatchVotedDifferently)
		}
		byRank[r.Ranking] = r
	}
	for i, response := range s.sent {
		r, ok := byRank[i]
		if !ok {
			return mismatch(MismatchIncompleteRanking)
		}
		c := b.chitFor(response)
		if c == nil || !c.MatchesNumber(r.ResponseChitNumber) {
			return mismatch(MismatchInvalidResponseChit)
		}
		if recordResponse(r) != response {
			return mismatch(MismatchVotedDifferently)
		}
	}
	return verified(true)
}
