package ballot

import (
	"fmt"
	"slices"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

// selection is the question-type specific part of a ballot.
type selection interface {
	hasChoice() bool
	chosen() []string
	remember()
	submitted() []string
	check(b *Ballot, mine []domain.VoteRecord) Verification
}

type singleSelection struct {
	current string
	sent    string
}

func (s *singleSelection) hasChoice() bool { return s.current != "" }

func (s *singleSelection) chosen() []string {
	if s.current == "" {
		return nil
	}
	return []string{s.current}
}

func (s *singleSelection) remember() { s.sent = s.current }

func (s *singleSelection) submitted() []string {
	if s.sent == "" {
		return nil
	}
	return []string{s.sent}
}

type rankedSelection struct {
	options  []string
	ranked   []string
	unranked []string
	sent     []string
}

func newRankedSelection(options []domain.ResponseOption) *rankedSelection {
	s := &rankedSelection{}
	for _, o := range options {
		s.options = append(s.options, o.Text())
	}
	s.unranked = slices.Clone(s.options)
	return s
}

func (s *rankedSelection) hasChoice() bool { return len(s.ranked) > 0 }

func (s *rankedSelection) chosen() []string { return slices.Clone(s.ranked) }

func (s *rankedSelection) remember() { s.sent = slices.Clone(s.ranked) }

func (s *rankedSelection) submitted() []string { return slices.Clone(s.sent) }

// returnToUnranked keeps unranked choices in question option order.
func (s *rankedSelection) returnToUnranked(response string) {
	s.unranked = append(s.unranked, response)
	slices.SortFunc(s.unranked, func(a, b string) int {
		return slices.Index(s.options, a) - slices.Index(s.options, b)
	})
}

func remove(list []string, response string) ([]string, bool) {
	i := slices.Index(list, response)
	if i < 0 {
		return list, false
	}
	return slices.Delete(list, i, i+1), true
}

func (b *Ballot) single() (*singleSelection, error) {
	s, ok := b.selection.(*singleSelection)
	if !ok {
		return nil, fmt.Errorf("question %d is ranked choice: %w", b.question.ID, domain.ErrInvalidTransition)
	}
	return s, nil
}

func (b *Ballot) rankedSel() (*rankedSelection, error) {
	s, ok := b.selection.(*rankedSelection)
	if !ok {
		return nil, fmt.Errorf("question %d is single choice: %w", b.question.ID, domain.ErrInvalidTransition)
	}
	return s, nil
}

func (b *Ballot) option(response string) (string, error) {
	text := domain.NewResponseOption(response).Text()
	if !b.question.HasOption(text) {
		return "", fmt.Errorf("%q: %w", text, domain.ErrUnknownResponse)
	}
	return text, nil
}

// SelectResponse sets the single-choice selection. It reports whether the
// ballot changed; a ballot that is no longer UNDECIDED or whose question is
// closed is left alone.
func (b *Ballot) SelectResponse(response string) (bool, error) {
	s, err := b.single()
	if err != nil {
		return false, err
	}
	text, err := b.option(response)
	if err != nil {
		return false, err
	}
	if !b.editable() || s.current == text {
		return false, nil
	}
	s.current = text
	return true, nil
}

// RankedChoices and UnrankedChoices partition the options of a ranked ballot.
func (b *Ballot) RankedChoices() []string {
	if s, ok := b.selection.(*rankedSelection); ok {
		return slices.Clone(s.ranked)
	}
	return nil
}

func (b *Ballot) UnrankedChoices() []string {
	if s, ok := b.selection.(*rankedSelection); ok {
		return slices.Clone(s.unranked)
	}
	return nil
}

// CurrentlySelectedResponse is the single-choice selection, if any.
func (b *Ballot) CurrentlySelectedResponse() string {
	if s, ok := b.selection.(*singleSelection); ok {
		return s.current
	}
	return ""
}

func (b *Ballot) rankedOp(response string, op func(s *rankedSelection, text string) bool) (bool, error) {
	s, err := b.rankedSel()
	if err != nil {
		return false, err
	}
	text, err := b.option(response)
	if err != nil {
		return false, err
	}
	if !b.editable() {
		return false, nil
	}
	return op(s, text), nil
}

// AddChoice moves an unranked option to the end of the ranking.
func (b *Ballot) AddChoice(response string) (bool, error) {
	return b.rankedOp(response, func(s *rankedSelection, text string) bool {
		var ok bool
		if s.unranked, ok = remove(s.unranked, text); !ok {
			return false
		}
		s.ranked = append(s.ranked, text)
		return true
	})
}

func (b *Ballot) MoveUp(response string) (bool, error) {
	return b.rankedOp(response, func(s *rankedSelection, text string) bool {
		i := slices.Index(s.ranked, text)
		if i <= 0 {
			return false
		}
		s.ranked[i-1], s.ranked[i] = s.ranked[i], s.ranked[i-1]
		return true
	})
}

func (b *Ballot) MoveDown(response string) (bool, error) {
	return b.rankedOp(response, func(s *rankedSelection, text string) bool {
		i := slices.Index(s.ranked, text)
		if i < 0 || i == len(s.ranked)-1 {
			return false
		}
		s.ranked[i], s.ranked[i+1] = s.ranked[i+1], s.ranked[i]
		return true
	})
}

// InsertBefore places response (ranked or not) directly ahead of the ranked
// choice before.
func (b *Ballot) InsertBefore(response, before string) (bool, error) {
	target, err := b.option(before)
	if err != nil {
		return false, err
	}
	return b.rankedOp(response, func(s *rankedSelection, text string) bool {
		if text == target || !slices.Contains(s.ranked, target) {
			return false
		}
		s.ranked, _ = remove(s.ranked, text)
		s.unranked, _ = remove(s.unranked, text)
		i := slices.Index(s.ranked, target)
		s.ranked = slices.Insert(s.ranked, i, text)
		return true
	})
}

// DeleteChoice drops a ranked choice back into the unranked pool.
func (b *Ballot) DeleteChoice(response string) (bool, error) {
	return b.rankedOp(response, func(s *rankedSelection, text string) bool {
		var ok bool
		if s.ranked, ok = remove(s.ranked, text); !ok {
			return false
		}
		s.returnToUnranked(text)
		return true
	})
}
