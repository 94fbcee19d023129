package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/blindpoll/internal/core/ballot"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

type BallotService interface {
	RequestSigning(ctx context.Context, b *ballot.Ballot) error
	SubmitVote(ctx context.Context, b *ballot.Ballot) error
	VerifyVote(ctx context.Context, b *ballot.Ballot) (*VerificationReport, error)
}

type VerificationReport struct {
	ballot.Verification
	Result domain.QuestionResult `json:"result"`
}

type BallotView struct {
	QuestionID         int64               `json:"questionID"`
	Text               string              `json:"text"`
	Type               domain.QuestionType `json:"type"`
	Options            []string            `json:"options"`
	Closed             bool                `json:"closed"`
	State              domain.BallotState  `json:"state"`
	Selected           string              `json:"currentlySelectedResponse,omitempty"`
	Ranked             []string            `json:"rankedChoices,omitempty"`
	Unranked           []string            `json:"unrankedChoices,omitempty"`
	Submitted          []string            `json:"submitted,omitempty"`
	AllSigned          bool                `json:"allSigned"`
	CanVote            bool                `json:"canVote"`
	PersonalChitNumber string              `json:"personalChitNumber"`
}

type RankOp string

const (
	RankAdd    RankOp = "add"
	RankUp     RankOp = "up"
	RankDown   RankOp = "down"
	RankBefore RankOp = "before"
	RankDelete RankOp = "delete"
)

type RankInput struct {
	Op       RankOp `json:"op"`
	Response string `json:"response"`
	Before   string `json:"before,omitempty"`
}

type TroubleReport struct {
	Kind       string    `json:"kind"`
	QuestionID int64     `json:"questionID"`
	Message    string    `json:"message"`
	At         time.Time `json:"at"`
}

type SessionView struct {
	ID        uuid.UUID       `json:"id"`
	Identity  string          `json:"identity"`
	LoggedOut bool            `json:"loggedOut"`
	Trouble   bool            `json:"trouble"`
	Reports   []TroubleReport `json:"troubleReports"`
}

type VoterService interface {
	Start(ctx context.Context) error
	RefreshOpenQuestions(ctx context.Context) error
	Questions(ctx context.Context) []BallotView
	Ballot(ctx context.Context, questionID int64) (*BallotView, error)
	Select(ctx context.Context, questionID int64, response string) (*BallotView, error)
	Rank(ctx context.Context, questionID int64, input RankInput) (*BallotView, error)
	Sign(ctx context.Context, questionID int64) (*BallotView, error)
	Vote(ctx context.Context, questionID int64) (*BallotView, error)
	Verify(ctx context.Context, questionID int64) (*VerificationReport, error)
	Session() SessionView
}

type ReportService interface {
	Results(ctx context.Context, questionID int64) (*domain.QuestionResult, error)
}
