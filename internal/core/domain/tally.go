package domain

type CandidateTally struct {
	Name  string `json:"name"`
	Votes int    `json:"votes"`
}

type SingleChoiceResult struct {
	Counts                map[string]int `json:"counts"`
	TotalVotersResponding int            `json:"totalVotersResponding"`
}

// RankedChoiceResult carries the winner ("" when nobody voted) and the sorted
// tally of every round.
type RankedChoiceResult struct {
	Winner                string             `json:"winner,omitempty"`
	Rounds                [][]CandidateTally `json:"rounds"`
	TotalVotersResponding int                `json:"totalVotersResponding"`
}

type QuestionResult struct {
	QuestionID int64               `json:"questionID"`
	Type       QuestionType        `json:"type"`
	Single     *SingleChoiceResult `json:"single,omitempty"`
	Ranked     *RankedChoiceResult `json:"ranked,omitempty"`
}
