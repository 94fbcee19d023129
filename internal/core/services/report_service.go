package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
	"github.com/vncsmyrnk/blindpoll/internal/core/tabulation"
)

type reportService struct {
	authority ports.Authority
	l         *zap.Logger
}

func NewReportService(authority ports.Authority, l *zap.Logger) ports.ReportService {
	return &reportService{
		authority: authority,
		l:         l,
	}
}

// Results tabulates the authority's report for one question, closed or not.
func (s *reportService) Results(ctx context.Context, questionID int64) (*domain.QuestionResult, error) {
	q, err := s.authority.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question %d: %w", questionID, err)
	}
	records, err := s.authority.VerificationRecords(ctx, questionID)
	if err != nil {
		s.l.Error("failed to fetch vote records", zap.Int64("question_id", questionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get records of question %d: %w", questionID, err)
	}
	result := tabulate(q, domain.RecordsForQuestion(questionID, records))
	return &result, nil
}

func tabulate(q *domain.Question, records []domain.VoteRecord) domain.QuestionResult {
	result := domain.QuestionResult{QuestionID: q.ID, Type: q.Type}
	if q.Ranked() {
		r := tabulation.RankedChoice(records)
		result.Ranked = &r
	} else {
		r := tabulation.SingleChoice(q.Options, records)
		result.Single = &r
	}
	return result
}
