package ballot

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/vncsmyrnk/blindpoll/internal/core/chit"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

// Key is the namespace key a ballot is stored under.
func Key(questionID int64) string {
	return fmt.Sprintf("ballot.%d", questionID)
}

type persisted struct {
	QuestionID                int64               `json:"questionID"`
	Type                      domain.QuestionType `json:"type"`
	State                     domain.BallotState  `json:"state"`
	PersonalChit              *chit.Chit          `json:"personalChit"`
	ResponseChits             []*chit.Chit        `json:"responseChits"`
	CurrentlySelectedResponse string              `json:"currentlySelectedResponse,omitempty"`
	RankedChoices             []string            `json:"rankedChoices,omitempty"`
	UnrankedChoices           []string            `json:"unrankedChoices,omitempty"`
	SubmittedResponse         string              `json:"submittedResponse,omitempty"`
	SubmittedRanking          []string            `json:"submittedRanking,omitempty"`
}

func (b *Ballot) MarshalJSON() ([]byte, error) {
	p := persisted{
		QuestionID:    b.question.ID,
		Type:          b.question.Type,
		State:         b.state,
		PersonalChit:  b.personal,
		ResponseChits: b.responses,
	}
	switch s := b.selection.(type) {
	case *singleSelection:
		p.CurrentlySelectedResponse = s.current
		p.SubmittedResponse = s.sent
	case *rankedSelection:
		p.RankedChoices = s.ranked
		p.UnrankedChoices = s.unranked
		p.SubmittedRanking = s.sent
	}
	return json.Marshal(p)
}

// Restore rebuilds a ballot for q from its stored form. Anything that does
// not fit q is an error; callers start a fresh ballot instead.
func Restore(q *domain.Question, data []byte) (*Ballot, error) {
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse stored ballot: %w", err)
	}
	if p.QuestionID != q.ID {
		return nil, fmt.Errorf("stored ballot is for question %d, not %d", p.QuestionID, q.ID)
	}
	if p.PersonalChit == nil || p.PersonalChit.Kind != chit.KindPersonal || p.PersonalChit.QuestionID != q.ID {
		return nil, fmt.Errorf("stored ballot has no valid personal chit")
	}
	if len(p.ResponseChits) != len(q.Options) {
		return nil, fmt.Errorf("stored ballot has %d response chits for %d options", len(p.ResponseChits), len(q.Options))
	}
	seen := make(map[string]bool, len(p.ResponseChits))
	for _, c := range p.ResponseChits {
		if c == nil || c.Kind != chit.KindResponse || c.QuestionID != q.ID || !q.HasOption(c.Response) || seen[c.Response] {
			return nil, fmt.Errorf("stored ballot has an invalid response chit")
		}
		seen[c.Response] = true
	}

	b := &Ballot{
		question:  q,
		state:     p.State,
		personal:  p.PersonalChit,
		responses: p.ResponseChits,
	}
	if q.Ranked() {
		s := newRankedSelection(q.Options)
		all := append(slices.Clone(p.RankedChoices), p.UnrankedChoices...)
		if !samePartition(all, s.options) {
			return nil, fmt.Errorf("stored ranking does not cover the options of question %d", q.ID)
		}
		s.ranked = slices.Clone(p.RankedChoices)
		s.unranked = slices.Clone(p.UnrankedChoices)
		s.sent = slices.Clone(p.SubmittedRanking)
		b.selection = s
	} else {
		for _, r := range []string{p.CurrentlySelectedResponse, p.SubmittedResponse} {
			if r != "" && !q.HasOption(r) {
				return nil, fmt.Errorf("stored selection %q: %w", r, domain.ErrUnknownResponse)
			}
		}
		b.selection = &singleSelection{current: p.CurrentlySelectedResponse, sent: p.SubmittedResponse}
	}
	if b.IVoted() && len(b.selection.submitted()) == 0 {
		return nil, fmt.Errorf("stored ballot in state %s remembers no submission", b.state)
	}
	return b, nil
}

func samePartition(got, options []string) bool {
	if len(got) != len(options) {
		return false
	}
	a := slices.Clone(got)
	o := slices.Clone(options)
	slices.Sort(a)
	slices.Sort(o)
	return slices.Equal(a, o)
}
