package rest

import (
	"fmt"

	"github.com/vncsmyrnk/blindpoll/internal/core/blindsig"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

// KeysDTO is the global response-chit key, in decimal.
type KeysDTO struct {
	Public  string `json:"public"`
	Modulus string `json:"modulus"`
}

type ResponseDTO struct {
	Text string `json:"text"`
}

// QuestionDTO is a question as served by the authority. The per-question key
// signs personal chits only.
type QuestionDTO struct {
	ID                int64         `json:"id"`
	Text              string        `json:"text"`
	Type              string        `json:"type"`
	Status            string        `json:"status"`
	PossibleResponses []ResponseDTO `json:"possibleResponses"`
	ExponentStr       string        `json:"exponentStr"`
	ModulusStr        string        `json:"modulusStr"`
}

type SignRequest struct {
	B string `json:"b"`
}

type QuestionRefDTO struct {
	ID int64 `json:"id"`
}

// RecordDTO is one entry of the verification report. Older reports carry a
// flat questionID instead of the nested question.
type RecordDTO struct {
	Question           *QuestionRefDTO `json:"question,omitempty"`
	QuestionID         int64           `json:"questionID,omitempty"`
	Response           string          `json:"response"`
	VoterChitNumber    string          `json:"voterChitNumber"`
	ResponseChitNumber string          `json:"responseChitNumber"`
	Ranking            int             `json:"ranking"`
}

func parseKey(e, n string) (domain.PublicKey, error) {
	exp, err := blindsig.ParseDecimal(e)
	if err != nil {
		return domain.PublicKey{}, err
	}
	mod, err := blindsig.ParseDecimal(n)
	if err != nil {
		return domain.PublicKey{}, err
	}
	key := domain.PublicKey{E: exp, N: mod}
	if !key.Valid() {
		return domain.PublicKey{}, fmt.Errorf("invalid public key")
	}
	return key, nil
}

func (d KeysDTO) ToDomain() (domain.PublicKey, error) {
	return parseKey(d.Public, d.Modulus)
}

func (d QuestionDTO) ToDomain() (*domain.Question, error) {
	options := make([]string, 0, len(d.PossibleResponses))
	for _, r := range d.PossibleResponses {
		options = append(options, r.Text)
	}
	var key domain.PublicKey
	if d.ExponentStr != "" || d.ModulusStr != "" {
		var err error
		if key, err = parseKey(d.ExponentStr, d.ModulusStr); err != nil {
			return nil, fmt.Errorf("question %d key: %w", d.ID, err)
		}
	}
	return domain.NewQuestion(d.ID, d.Text, domain.QuestionType(d.Type), domain.QuestionStatus(d.Status), options, key)
}

func QuestionFromDomain(q *domain.Question) QuestionDTO {
	d := QuestionDTO{
		ID:     q.ID,
		Text:   q.Text,
		Type:   string(q.Type),
		Status: string(q.Status),
	}
	if q.Closed() {
		d.Status = string(domain.QuestionStatusClosed)
	}
	for _, o := range q.Options {
		d.PossibleResponses = append(d.PossibleResponses, ResponseDTO{Text: o.Text()})
	}
	if q.Key.Valid() {
		d.ExponentStr = q.Key.E.String()
		d.ModulusStr = q.Key.N.String()
	}
	return d
}

func (d RecordDTO) ToDomain() domain.VoteRecord {
	qid := d.QuestionID
	if d.Question != nil {
		qid = d.Question.ID
	}
	return domain.VoteRecord{
		QuestionID:         qid,
		Response:           d.Response,
		Ranking:            d.Ranking,
		VoterChitNumber:    d.VoterChitNumber,
		ResponseChitNumber: d.ResponseChitNumber,
	}
}

func RecordFromDomain(r domain.VoteRecord) RecordDTO {
	return RecordDTO{
		Question:           &QuestionRefDTO{ID: r.QuestionID},
		Response:           r.Response,
		VoterChitNumber:    r.VoterChitNumber,
		ResponseChitNumber: r.ResponseChitNumber,
		Ranking:            r.Ranking,
	}
}
