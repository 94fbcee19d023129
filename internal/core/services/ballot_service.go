package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/blindpoll/internal/core/ballot"
	"github.com/vncsmyrnk/blindpoll/internal/core/chit"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
)

type RankedSubmission string

const (
	// RankedPositional posts one vote request per ranked position concurrently.
	RankedPositional RankedSubmission = "positional"
	// RankedBatch posts every position in one vote_rank request.
	RankedBatch RankedSubmission = "batch"
)

const (
	alertUnauthorized = "Your session is no longer authorized. Please log in again."
	alertClosed       = "This question appears to have closed."
	alertNotCounted   = "The question closed before your vote was received. Your vote was not counted."
	alertWrongMessage = "The ballot authority signed a message that is not mine."
	alertUnavailable  = "Unable to reach the ballot authority. Please try again."
)

var _ ports.BallotService = (*ballotService)(nil)

type ballotService struct {
	authority ports.Authority
	repo      *ballotRepository
	prompter  ports.Prompter
	session   *Session
	metrics   *Metrics
	random    io.Reader
	ranked    RankedSubmission
	l         *zap.Logger
}

func newBallotService(authority ports.Authority, repo *ballotRepository, prompter ports.Prompter, session *Session, metrics *Metrics, random io.Reader, ranked RankedSubmission, l *zap.Logger) *ballotService {
	if ranked == "" {
		ranked = RankedPositional
	}
	return &ballotService{
		authority: authority,
		repo:      repo,
		prompter:  prompter,
		session:   session,
		metrics:   metrics,
		random:    random,
		ranked:    ranked,
		l:         l,
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrGone):
		return "gone"
	case errors.Is(err, domain.ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unavailable"
	}
}

type signingResult struct {
	req    ballot.SigningRequest
	signed string
	err    error
}

func (s *ballotService) sign(ctx context.Context, questionID int64, req ballot.SigningRequest) (string, error) {
	if req.Chit.Kind == chit.KindPersonal {
		return s.authority.SignPersonalChit(ctx, questionID, req.Blinded)
	}
	return s.authority.SignResponseChit(ctx, questionID, req.Blinded)
}

// RequestSigning blinds every unsigned chit and asks the authority to sign
// them concurrently. Each chit is unblinded, verified and persisted as its
// answer arrives. At most one alert is raised per call.
func (s *ballotService) RequestSigning(ctx context.Context, b *ballot.Ballot) error {
	if s.session.LoggedOut() {
		return domain.ErrLoggedOut
	}
	q := b.Question()
	log := s.l.With(zap.Int64("question_id", q.ID))

	requests, err := b.PrepareSigning(s.random, s.session.ResponseKey())
	if err != nil {
		return fmt.Errorf("failed to prepare signing: %w", err)
	}
	if len(requests) == 0 {
		return nil
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return err
	}

	results := make(chan signingResult, len(requests))
	var g errgroup.Group
	for _, req := range requests {
		g.Go(func() error {
			signed, err := s.sign(ctx, q.ID, req)
			results <- signingResult{req: req, signed: signed, err: err}
			return nil
		})
	}

	var errs []error
	for range requests {
		res := <-results
		err := res.err
		if err == nil {
			err = res.req.Chit.AcceptSigned(res.signed)
			if errors.Is(err, domain.ErrSignatureMismatch) {
				log.Error("authority signed the wrong message",
					zap.String("chit_kind", string(res.req.Chit.Kind)),
					zap.Error(err))
				s.session.Trouble.Report("signature_mismatch", q.ID, err.Error())
			}
		}
		if err != nil {
			s.metrics.signingFailures.WithLabelValues(reason(err)).Inc()
			errs = append(errs, err)
			if len(errs) == 1 {
				s.alertSigning(ctx, err)
			}
			continue
		}
		s.metrics.chitsSigned.WithLabelValues(string(res.req.Chit.Kind)).Inc()
		if err := s.repo.Save(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	// Workers report through results; Wait only joins them.
	_ = g.Wait()

	if len(errs) > 0 {
		log.Warn("chit signing incomplete", zap.Int("failed", len(errs)), zap.Int("requested", len(requests)))
		return fmt.Errorf("failed to sign chits: %w", errors.Join(errs...))
	}
	log.Debug("all chits signed", zap.Int("signed", len(requests)))
	return nil
}

func (s *ballotService) alertSigning(ctx context.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		s.session.LogOut()
		s.prompter.Alert(ctx, alertUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		s.prompter.Alert(ctx, alertClosed)
	case errors.Is(err, domain.ErrSignatureMismatch):
		s.prompter.Alert(ctx, alertWrongMessage)
	default:
		s.prompter.Alert(ctx, alertUnavailable)
	}
}

// SubmitVote sends the ballot and resolves SUBMITTED into ACKNOWLEDGED on
// success or back into DECIDED on any failure.
func (s *ballotService) SubmitVote(ctx context.Context, b *ballot.Ballot) error {
	if s.session.LoggedOut() {
		return domain.ErrLoggedOut
	}
	q := b.Question()
	log := s.l.With(zap.Int64("question_id", q.ID))

	payloads, err := b.GeneratePayload()
	if err != nil {
		return err
	}
	if err := b.MarkSubmitted(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, b); err != nil {
		b.RevertToDecided()
		return err
	}

	if err := s.post(ctx, q, payloads); err != nil {
		b.RevertToDecided()
		if saveErr := s.repo.Save(ctx, b); saveErr != nil {
			log.Error("failed to persist reverted ballot", zap.Error(saveErr))
		}
		s.metrics.submissionFailures.WithLabelValues(reason(err)).Inc()
		log.Warn("vote submission failed", zap.String("state", b.State().String()), zap.Error(err))
		switch {
		case errors.Is(err, domain.ErrGone):
			s.prompter.Alert(ctx, alertNotCounted)
		case errors.Is(err, domain.ErrUnauthorized):
			s.session.LogOut()
			s.prompter.Alert(ctx, alertUnauthorized)
		default:
			s.prompter.Alert(ctx, alertUnavailable)
		}
		return fmt.Errorf("failed to submit vote: %w", err)
	}

	if err := b.MarkAcknowledged(); err != nil {
		return err
	}
	s.metrics.votesSubmitted.WithLabelValues(string(q.Type)).Inc()
	log.Info("vote acknowledged", zap.Int("positions", len(payloads)))
	return s.repo.Save(ctx, b)
}

func (s *ballotService) post(ctx context.Context, q *domain.Question, payloads []domain.VotePayload) error {
	if !q.Ranked() {
		return s.authority.Vote(ctx, q.ID, payloads[0])
	}
	if s.ranked == RankedBatch {
		return s.authority.VoteRanked(ctx, q.ID, payloads)
	}

	errs := make([]error, len(payloads))
	var g errgroup.Group
	for i, p := range payloads {
		g.Go(func() error {
			errs[i] = s.authority.Vote(ctx, q.ID, p)
			return nil
		})
	}
	// Each position keeps its own error so one failure does not hide the rest.
	_ = g.Wait()
	return errors.Join(errs...)
}

// VerifyVote reconciles the ballot with the authority's report and tallies
// the report for the voter to compare.
func (s *ballotService) VerifyVote(ctx context.Context, b *ballot.Ballot) (*ports.VerificationReport, error) {
	q := b.Question()
	log := s.l.With(zap.Int64("question_id", q.ID))

	records, err := s.authority.VerificationRecords(ctx, q.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.session.LogOut()
		}
		return nil, fmt.Errorf("failed to fetch verification records: %w", err)
	}

	v := b.CheckRecords(records)
	b.ApplyVerification(v)
	if err := s.repo.Save(ctx, b); err != nil {
		log.Error("failed to persist verified ballot", zap.Error(err))
	}
	s.metrics.verifications.WithLabelValues(string(v.Outcome)).Inc()

	report := &ports.VerificationReport{
		Verification: v,
		Result:       tabulate(q, domain.RecordsForQuestion(q.ID, records)),
	}
	if !v.OK() {
		s.session.Trouble.Report(string(v.Mismatch), q.ID, v.Message)
		return report, fmt.Errorf("%s: %w", v.Message, domain.ErrVerificationFailed)
	}
	log.Info("vote verified", zap.String("outcome", string(v.Outcome)), zap.String("state", b.State().String()))
	return report, nil
}
