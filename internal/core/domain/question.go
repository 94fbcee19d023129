package domain

import (
	"fmt"
	"math/big"
	"strings"
)

type QuestionType string

const (
	QuestionTypeSingle       QuestionType = "SINGLE"
	QuestionTypeRankedChoice QuestionType = "RANKED_CHOICE"
)

type QuestionStatus string

const (
	QuestionStatusNew     QuestionStatus = "new"
	QuestionStatusPolling QuestionStatus = "polling"
	QuestionStatusClosed  QuestionStatus = "closed"
)

// PublicKey is an RSA public exponent and modulus used to verify blind signatures.
type PublicKey struct {
	E *big.Int
	N *big.Int
}

func (k PublicKey) Valid() bool {
	return k.E != nil && k.N != nil && k.E.Sign() > 0 && k.N.Cmp(big.NewInt(1)) > 0
}

// ResponseOption is compared and stored trimmed of outer whitespace.
type ResponseOption string

func NewResponseOption(text string) ResponseOption {
	return ResponseOption(strings.TrimSpace(text))
}

func (o ResponseOption) Text() string {
	return string(o)
}

type Question struct {
	ID       int64            `json:"id"`
	Text     string           `json:"text"`
	Type     QuestionType     `json:"type"`
	Status   QuestionStatus   `json:"status"`
	Options  []ResponseOption `json:"options"`
	Key      PublicKey        `json:"-"`
	IsClosed bool             `json:"closed"`
}

// NewQuestion normalizes options and rejects duplicates.
func NewQuestion(id int64, text string, qtype QuestionType, status QuestionStatus, options []string, key PublicKey) (*Question, error) {
	if qtype == "" {
		qtype = QuestionTypeSingle
	}
	q := &Question{
		ID:     id,
		Text:   text,
		Type:   qtype,
		Status: status,
		Key:    key,
	}
	seen := make(map[ResponseOption]bool, len(options))
	for _, raw := range options {
		opt := NewResponseOption(raw)
		if seen[opt] {
			return nil, fmt.Errorf("question %d option %q: %w", id, opt, ErrDuplicateResponse)
		}
		seen[opt] = true
		q.Options = append(q.Options, opt)
	}
	return q, nil
}

func (q *Question) Closed() bool {
	return q.IsClosed || q.Status == QuestionStatusClosed
}

func (q *Question) Close() {
	q.IsClosed = true
}

func (q *Question) Ranked() bool {
	return q.Type == QuestionTypeRankedChoice
}

func (q *Question) HasOption(text string) bool {
	return q.OptionIndex(text) >= 0
}

func (q *Question) OptionIndex(text string) int {
	want := NewResponseOption(text)
	for i, opt := range q.Options {
		if opt == want {
			return i
		}
	}
	return -1
}

func (q *Question) OptionTexts() []string {
	texts := make([]string, len(q.Options))
	for i, opt := range q.Options {
		texts[i] = opt.Text()
	}
	return texts
}
