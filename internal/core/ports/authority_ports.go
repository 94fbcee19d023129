package ports

import (
	"context"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

// Authority is the ballot authority as seen by a voter. Implementations map
// transport failures onto the domain sentinel errors.
type Authority interface {
	GetKeys(ctx context.Context) (domain.PublicKey, error)
	OpenQuestions(ctx context.Context) ([]*domain.Question, error)
	GetQuestion(ctx context.Context, id int64) (*domain.Question, error)
	SignResponseChit(ctx context.Context, questionID int64, blinded string) (string, error)
	SignPersonalChit(ctx context.Context, questionID int64, blinded string) (string, error)
	Vote(ctx context.Context, questionID int64, payload domain.VotePayload) error
	VoteRanked(ctx context.Context, questionID int64, payloads []domain.VotePayload) error
	VerificationRecords(ctx context.Context, questionID int64) ([]domain.VoteRecord, error)
}
