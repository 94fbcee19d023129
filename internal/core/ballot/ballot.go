// Package ballot is the per-(voter, question) aggregate: it owns the chits,
// the voter's selection and the UNDECIDED → VERIFIED lifecycle. Transport and
// storage live in the services layer; everything here is synchronous.
package ballot

import (
	"fmt"
	"io"
	"math/big"

	"github.com/vncsmyrnk/blindpoll/internal/core/blindsig"
	"github.com/vncsmyrnk/blindpoll/internal/core/chit"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

type Ballot struct {
	question  *domain.Question
	state     domain.BallotState
	personal  *chit.Chit
	responses []*chit.Chit
	selection selection
}

// New creates a fresh UNDECIDED ballot with one personal chit and one
// response chit per option. A nil random source means crypto/rand.
func New(q *domain.Question, random io.Reader) (*Ballot, error) {
	personal, err := chit.NewPersonal(random, q.ID)
	if err != nil {
		return nil, err
	}
	responses := make([]*chit.Chit, 0, len(q.Options))
	for _, opt := range q.Options {
		c, err := chit.NewResponse(random, q.ID, opt)
		if err != nil {
			return nil, err
		}
		responses = append(responses, c)
	}
	return &Ballot{
		question:  q,
		state:     domain.BallotUndecided,
		personal:  personal,
		responses: responses,
		selection: newSelection(q),
	}, nil
}

func newSelection(q *domain.Question) selection {
	if q.Ranked() {
		return newRankedSelection(q.Options)
	}
	return &singleSelection{}
}

func (b *Ballot) Question() *domain.Question { return b.question }

func (b *Ballot) State() domain.BallotState { return b.state }

func (b *Ballot) PersonalChit() *chit.Chit { return b.personal }

func (b *Ballot) ResponseChits() []*chit.Chit { return b.responses }

// Chits returns the personal chit followed by the response chits.
func (b *Ballot) Chits() []*chit.Chit {
	return append([]*chit.Chit{b.personal}, b.responses...)
}

func (b *Ballot) chitFor(response string) *chit.Chit {
	for _, c := range b.responses {
		if c.Response == response {
			return c
		}
	}
	return nil
}

func (b *Ballot) AreAllChitsSigned() bool {
	for _, c := range b.Chits() {
		if !c.IsSigned() {
			return false
		}
	}
	return true
}

// IVoted is true once the ballot has been handed to the authority.
func (b *Ballot) IVoted() bool {
	return b.state >= domain.BallotSubmitted
}

func (b *Ballot) HasChoice() bool {
	return b.selection.hasChoice()
}

// CanVote also allows a retry from DECIDED after a failed submission or
// verification.
func (b *Ballot) CanVote() bool {
	if b.question.Closed() || !b.selection.hasChoice() {
		return false
	}
	if b.state != domain.BallotUndecided && b.state != domain.BallotDecided {
		return false
	}
	return b.AreAllChitsSigned()
}

func (b *Ballot) editable() bool {
	return b.state == domain.BallotUndecided && !b.question.Closed()
}

// SigningRequest is one blinded chit ready for the authority.
type SigningRequest struct {
	Chit    *chit.Chit
	Blinded string
}

// PrepareSigning blinds every unsigned chit. Response chits share one blinding
// factor under the global key; the personal chit gets its own under the
// question key.
func (b *Ballot) PrepareSigning(random io.Reader, globalKey domain.PublicKey) ([]SigningRequest, error) {
	var requests []SigningRequest
	if !b.personal.IsSigned() {
		if !b.question.Key.Valid() {
			return nil, fmt.Errorf("question %d has no signing key", b.question.ID)
		}
		k, err := blindsig.ChooseBlindingFactor(random, b.question.Key.N)
		if err != nil {
			return nil, err
		}
		requests = append(requests, SigningRequest{Chit: b.personal, Blinded: b.personal.Blind(k, b.question.Key)})
	}

	var k *big.Int
	for _, c := range b.responses {
		if c.IsSigned() {
			continue
		}
		if k == nil {
			if !globalKey.Valid() {
				return nil, fmt.Errorf("no global signing key")
			}
			var err error
			if k, err = blindsig.ChooseBlindingFactor(random, globalKey.N); err != nil {
				return nil, err
			}
		}
		requests = append(requests, SigningRequest{Chit: c, Blinded: c.Blind(k, globalKey)})
	}
	return requests, nil
}

// GeneratePayload moves the ballot to DECIDED and builds one payload per
// ranked position (a single payload for single-choice questions).
func (b *Ballot) GeneratePayload() ([]domain.VotePayload, error) {
	if b.state != domain.BallotUndecided && b.state != domain.BallotDecided {
		return nil, fmt.Errorf("generate payload in state %s: %w", b.state, domain.ErrInvalidTransition)
	}
	if b.question.Closed() {
		return nil, domain.ErrQuestionClosed
	}
	if !b.selection.hasChoice() {
		return nil, domain.ErrNoResponseChosen
	}
	if !b.AreAllChitsSigned() {
		return nil, domain.ErrChitsUnsigned
	}
	responses := b.selection.chosen()
	payloads := make([]domain.VotePayload, 0, len(responses))
	for i, response := range responses {
		c := b.chitFor(response)
		if c == nil {
			return nil, fmt.Errorf("%q: %w", response, domain.ErrUnknownResponse)
		}
		payloads = append(payloads, domain.VotePayload{
			MeChit:             b.personal.MessageText(),
			MeChitSigned:       b.personal.SignedText(),
			ResponseChit:       c.MessageText(),
			ResponseChitSigned: c.SignedText(),
			Ranking:            i,
		})
	}
	b.state = domain.BallotDecided
	return payloads, nil
}

// MarkSubmitted remembers the current selection as what was sent.
func (b *Ballot) MarkSubmitted() error {
	if b.state != domain.BallotDecided {
		return fmt.Errorf("submit in state %s: %w", b.state, domain.ErrInvalidTransition)
	}
	b.selection.remember()
	b.state = domain.BallotSubmitted
	return nil
}

func (b *Ballot) MarkAcknowledged() error {
	if b.state != domain.BallotSubmitted {
		return fmt.Errorf("acknowledge in state %s: %w", b.state, domain.ErrInvalidTransition)
	}
	b.state = domain.BallotAcknowledged
	return nil
}

// RevertToDecided undoes a failed submission or verification.
func (b *Ballot) RevertToDecided() {
	if b.state > domain.BallotDecided {
		b.state = domain.BallotDecided
	}
}

// SubmittedChoices is what the ballot remembers sending, in ranking order.
func (b *Ballot) SubmittedChoices() []string {
	return b.selection.submitted()
}

// CurrentChoices is the current selection in ranking order.
func (b *Ballot) CurrentChoices() []string {
	return b.selection.chosen()
}
