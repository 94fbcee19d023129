package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/blindpoll/internal/core/ballot"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
)

const maxConcurrentBallots = 4

type VoterConfig struct {
	Authority        ports.Authority
	Store            ports.NamespaceStore
	Prompter         ports.Prompter
	Session          *Session
	Metrics          *Metrics
	RankedSubmission RankedSubmission
	// Random feeds chit numbers and blinding factors; nil means crypto/rand.
	Random io.Reader
}

type ballotEntry struct {
	mu     sync.Mutex
	ballot *ballot.Ballot
}

type voterService struct {
	authority ports.Authority
	ballots   *ballotService
	repo      *ballotRepository
	prompter  ports.Prompter
	session   *Session
	l         *zap.Logger

	// refreshMu serializes refreshes; mu guards entries and order.
	refreshMu sync.Mutex
	mu        sync.RWMutex
	entries   map[int64]*ballotEntry
	order     []int64
}

func NewVoterService(cfg VoterConfig, l *zap.Logger) ports.VoterService {
	l = l.With(zap.String("session_id", cfg.Session.ID.String()))
	repo := newBallotRepository(cfg.Store, cfg.Session.Identity, cfg.Random, l)
	return &voterService{
		authority: cfg.Authority,
		ballots:   newBallotService(cfg.Authority, repo, cfg.Prompter, cfg.Session, cfg.Metrics, cfg.Random, cfg.RankedSubmission, l),
		repo:      repo,
		prompter:  cfg.Prompter,
		session:   cfg.Session,
		l:         l,
		entries:   make(map[int64]*ballotEntry),
	}
}

func (s *voterService) authorityError(err error) error {
	if errors.Is(err, domain.ErrUnauthorized) {
		s.session.LogOut()
	}
	return err
}

// Start fetches the global signing key once and loads the open questions.
func (s *voterService) Start(ctx context.Context) error {
	key, err := s.authority.GetKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to get signing keys: %w", s.authorityError(err))
	}
	s.session.SetResponseKey(key)
	return s.RefreshOpenQuestions(ctx)
}

// RefreshOpenQuestions marks questions that left the open list as closed and
// creates (or restores) ballots for new ones, requesting their signatures.
// A 403 while signing them means a question closed in between, so the list is
// fetched once more.
func (s *voterService) RefreshOpenQuestions(ctx context.Context) error {
	fresh, err := s.syncOpenQuestions(ctx)
	if err != nil {
		return err
	}
	if !s.signFresh(ctx, fresh) {
		return nil
	}

	fresh, err = s.syncOpenQuestions(ctx)
	if err != nil {
		s.l.Warn("refresh after forbidden signing failed", zap.Error(err))
		return nil
	}
	s.signFresh(ctx, fresh)
	return nil
}

// signFresh requests signatures for new ballots and reports whether the
// authority refused any of them as forbidden.
func (s *voterService) signFresh(ctx context.Context, fresh []*ballotEntry) bool {
	var forbidden atomic.Bool
	var g errgroup.Group
	g.SetLimit(maxConcurrentBallots)
	for _, e := range fresh {
		g.Go(func() error {
			e.mu.Lock()
			defer e.mu.Unlock()
			if err := s.ballots.RequestSigning(ctx, e.ballot); err != nil {
				if errors.Is(err, domain.ErrForbidden) {
					forbidden.Store(true)
				}
				s.l.Warn("signing new ballot failed",
					zap.Int64("question_id", e.ballot.Question().ID),
					zap.Error(err))
			}
			return nil
		})
	}
	// Failures are logged per ballot; Wait only joins the workers.
	_ = g.Wait()
	return forbidden.Load()
}

// syncOpenQuestions reconciles the ballot list with the authority's open
// questions and returns the entries it added.
func (s *voterService) syncOpenQuestions(ctx context.Context) ([]*ballotEntry, error) {
	if s.session.LoggedOut() {
		return nil, domain.ErrLoggedOut
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	questions, err := s.authority.OpenQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open questions: %w", s.authorityError(err))
	}
	open := make(map[int64]bool, len(questions))
	for _, q := range questions {
		open[q.ID] = true
	}

	var gone []*ballotEntry
	known := make(map[int64]bool)
	s.mu.RLock()
	for id, e := range s.entries {
		known[id] = true
		if !open[id] {
			gone = append(gone, e)
		}
	}
	s.mu.RUnlock()

	// A ballot busy voting holds its own lock; only this refresh waits for it.
	for _, e := range gone {
		e.mu.Lock()
		if q := e.ballot.Question(); !q.Closed() {
			q.Close()
			s.l.Info("question closed", zap.Int64("question_id", q.ID))
		}
		e.mu.Unlock()
	}

	var fresh []*ballotEntry
	for _, q := range questions {
		if known[q.ID] {
			continue
		}
		b, created, err := s.repo.LoadOrCreate(ctx, q)
		if err != nil {
			return fresh, err
		}
		if created {
			if err := s.repo.Save(ctx, b); err != nil {
				return fresh, err
			}
		}
		e := &ballotEntry{ballot: b}
		s.mu.Lock()
		s.entries[q.ID] = e
		s.order = append(s.order, q.ID)
		s.mu.Unlock()
		fresh = append(fresh, e)
	}
	return fresh, nil
}

func (s *voterService) lookup(questionID int64) (*ballotEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[questionID]
	if !ok {
		return nil, fmt.Errorf("question %d: %w", questionID, domain.ErrQuestionNotFound)
	}
	return e, nil
}

func view(b *ballot.Ballot) *ports.BallotView {
	q := b.Question()
	return &ports.BallotView{
		QuestionID:         q.ID,
		Text:               q.Text,
		Type:               q.Type,
		Options:            q.OptionTexts(),
		Closed:             q.Closed(),
		State:              b.State(),
		Selected:           b.CurrentlySelectedResponse(),
		Ranked:             b.RankedChoices(),
		Unranked:           b.UnrankedChoices(),
		Submitted:          b.SubmittedChoices(),
		AllSigned:          b.AreAllChitsSigned(),
		CanVote:            b.CanVote(),
		PersonalChitNumber: b.PersonalChit().Number.String(),
	}
}

func (s *voterService) Questions(ctx context.Context) []ports.BallotView {
	s.mu.RLock()
	entries := make([]*ballotEntry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.entries[id])
	}
	s.mu.RUnlock()

	views := make([]ports.BallotView, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		views = append(views, *view(e.ballot))
		e.mu.Unlock()
	}
	return views
}

func (s *voterService) Ballot(ctx context.Context, questionID int64) (*ports.BallotView, error) {
	e, err := s.lookup(questionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return view(e.ballot), nil
}

// edit applies a selection change and persists the ballot when it changed.
func (s *voterService) edit(ctx context.Context, questionID int64, change func(b *ballot.Ballot) (bool, error)) (*ports.BallotView, error) {
	e, err := s.lookup(questionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	changed, err := change(e.ballot)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.repo.Save(ctx, e.ballot); err != nil {
			return nil, err
		}
	}
	return view(e.ballot), nil
}

func (s *voterService) Select(ctx context.Context, questionID int64, response string) (*ports.BallotView, error) {
	return s.edit(ctx, questionID, func(b *ballot.Ballot) (bool, error) {
		return b.SelectResponse(response)
	})
}

func (s *voterService) Rank(ctx context.Context, questionID int64, input ports.RankInput) (*ports.BallotView, error) {
	return s.edit(ctx, questionID, func(b *ballot.Ballot) (bool, error) {
		switch input.Op {
		case ports.RankAdd:
			return b.AddChoice(input.Response)
		case ports.RankUp:
			return b.MoveUp(input.Response)
		case ports.RankDown:
			return b.MoveDown(input.Response)
		case ports.RankBefore:
			return b.InsertBefore(input.Response, input.Before)
		case ports.RankDelete:
			return b.DeleteChoice(input.Response)
		default:
			return false, fmt.Errorf("unknown ranking operation %q: %w", input.Op, domain.ErrInvalidTransition)
		}
	})
}

// Sign re-requests signatures for any unsigned chit. A 403 from the
// authority refreshes the open-question list.
func (s *voterService) Sign(ctx context.Context, questionID int64) (*ports.BallotView, error) {
	e, err := s.lookup(questionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	signErr := s.ballots.RequestSigning(ctx, e.ballot)
	v := view(e.ballot)
	e.mu.Unlock()

	if errors.Is(signErr, domain.ErrForbidden) {
		if err := s.RefreshOpenQuestions(ctx); err != nil {
			s.l.Warn("refresh after forbidden signing failed", zap.Error(err))
		}
		v, _ = s.Ballot(ctx, questionID)
	}
	return v, signErr
}

func notVotable(b *ballot.Ballot) error {
	switch {
	case b.Question().Closed():
		return domain.ErrQuestionClosed
	case !b.HasChoice():
		return domain.ErrNoResponseChosen
	case b.State() > domain.BallotDecided:
		return fmt.Errorf("ballot already %s: %w", b.State(), domain.ErrInvalidTransition)
	default:
		return domain.ErrChitsUnsigned
	}
}

// Vote asks for confirmation, submits the ballot and verifies it right away.
// A failed verification does not fail the vote; it is reported as trouble.
func (s *voterService) Vote(ctx context.Context, questionID int64) (*ports.BallotView, error) {
	e, err := s.lookup(questionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	b := e.ballot
	if !b.CanVote() {
		defer e.mu.Unlock()
		return view(b), notVotable(b)
	}

	prompt := fmt.Sprintf("Do you want to vote %s on the question %s", strings.Join(b.CurrentChoices(), ", "), b.Question().Text)
	ok, err := s.prompter.Confirm(ctx, prompt)
	if err != nil || !ok {
		e.mu.Unlock()
		if err == nil {
			err = domain.ErrNotConfirmed
		}
		return nil, err
	}

	submitErr := s.ballots.SubmitVote(ctx, b)
	if submitErr == nil {
		if _, err := s.ballots.VerifyVote(ctx, b); err != nil {
			s.l.Warn("automatic verification failed", zap.Int64("question_id", questionID), zap.Error(err))
		}
	}
	v := view(b)
	e.mu.Unlock()

	if errors.Is(submitErr, domain.ErrGone) {
		if err := s.RefreshOpenQuestions(ctx); err != nil {
			s.l.Warn("refresh after closed question failed", zap.Error(err))
		}
		v, _ = s.Ballot(ctx, questionID)
	}
	return v, submitErr
}

func (s *voterService) Verify(ctx context.Context, questionID int64) (*ports.VerificationReport, error) {
	e, err := s.lookup(questionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.ballots.VerifyVote(ctx, e.ballot)
}

func (s *voterService) Session() ports.SessionView {
	return s.session.View()
}
