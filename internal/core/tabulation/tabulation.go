// Package tabulation turns anonymized vote records into results.
package tabulation

import (
	"sort"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

// SingleChoice counts records by response. Every option is present in the
// result; responses outside the option list are still counted.
func SingleChoice(options []domain.ResponseOption, records []domain.VoteRecord) domain.SingleChoiceResult {
	counts := make(map[string]int, len(options))
	for _, o := range options {
		counts[o.Text()] = 0
	}
	voters := make(map[string]struct{}, len(records))
	for _, r := range records {
		counts[domain.NewResponseOption(r.Response).Text()]++
		voters[r.VoterChitNumber] = struct{}{}
	}
	return domain.SingleChoiceResult{Counts: counts, TotalVotersResponding: len(voters)}
}

// preferences groups records per voter and orders each voter's responses by
// ranking. Voters are returned sorted by chit number so that every later
// step is independent of record order.
func preferences(records []domain.VoteRecord) [][]string {
	byVoter := make(map[string][]domain.VoteRecord)
	for _, r := range records {
		byVoter[r.VoterChitNumber] = append(byVoter[r.VoterChitNumber], r)
	}
	voters := make([]string, 0, len(byVoter))
	for v := range byVoter {
		voters = append(voters, v)
	}
	sort.Strings(voters)

	out := make([][]string, 0, len(voters))
	for _, v := range voters {
		rs := byVoter[v]
		sort.SliceStable(rs, func(i, j int) bool {
			if rs[i].Ranking != rs[j].Ranking {
				return rs[i].Ranking < rs[j].Ranking
			}
			return rs[i].Response < rs[j].Response
		})
		list := make([]string, 0, len(rs))
		for _, r := range rs {
			list = append(list, domain.NewResponseOption(r.Response).Text())
		}
		out = append(out, list)
	}
	return out
}

// RankedChoice runs instant-runoff. A candidate wins a round when it holds
// more than half of all responding voters (exhausted ballots still count in
// the denominator) and strictly leads the runner-up. Otherwise every
// candidate tied for last place is eliminated at once.
func RankedChoice(records []domain.VoteRecord) domain.RankedChoiceResult {
	ballots := preferences(records)
	result := domain.RankedChoiceResult{Rounds: [][]domain.CandidateTally{}, TotalVotersResponding: len(ballots)}
	if len(ballots) == 0 {
		return result
	}

	eliminated := make(map[string]bool)
	for {
		round := tallyRound(ballots, eliminated)
		if len(round) == 0 {
			return result
		}
		result.Rounds = append(result.Rounds, round)

		top := round[0]
		if float64(top.Votes)/float64(result.TotalVotersResponding) > 0.5 &&
			(len(round) == 1 || top.Votes > round[1].Votes) {
			result.Winner = top.Name
			return result
		}

		lowest := round[len(round)-1].Votes
		for _, c := range round {
			if c.Votes == lowest {
				eliminated[c.Name] = true
			}
		}
	}
}

func tallyRound(ballots [][]string, eliminated map[string]bool) []domain.CandidateTally {
	votes := make(map[string]int)
	for _, prefs := range ballots {
		for _, p := range prefs {
			if !eliminated[p] {
				votes[p]++
				break
			}
		}
	}
	round := make([]domain.CandidateTally, 0, len(votes))
	for name, n := range votes {
		round = append(round, domain.CandidateTally{Name: name, Votes: n})
	}
	sort.Slice(round, func(i, j int) bool {
		if round[i].Votes != round[j].Votes {
			return round[i].Votes > round[j].Votes
		}
		return round[i].Name < round[j].Name
	})
	return round
}
