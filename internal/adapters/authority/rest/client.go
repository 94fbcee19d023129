// Package rest talks to the ballot authority over its JSON HTTP contract.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

const maxBodySize = 8 << 20

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	l       *zap.Logger
}

func New(baseURL, token string, timeout time.Duration, l *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		l:       l,
	}
}

func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, msg)
	case http.StatusGone:
		return fmt.Errorf("%w: %s", domain.ErrGone, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrAuthorityUnavailable, status, msg)
	}
}

// do sends one request and returns the raw body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthorityUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrAuthorityUnavailable, err)
	}
	c.l.Debug("authority call", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: malformed response from %s: %w", domain.ErrAuthorityUnavailable, path, err)
	}
	return nil
}

func (c *Client) GetKeys(ctx context.Context) (domain.PublicKey, error) {
	var keys KeysDTO
	if err := c.getJSON(ctx, "ballots/keys/", &keys); err != nil {
		return domain.PublicKey{}, err
	}
	return keys.ToDomain()
}

func (c *Client) OpenQuestions(ctx context.Context) ([]*domain.Question, error) {
	var dtos []QuestionDTO
	if err := c.getJSON(ctx, "ballots/", &dtos); err != nil {
		return nil, err
	}
	questions := make([]*domain.Question, 0, len(dtos))
	for _, d := range dtos {
		q, err := d.ToDomain()
		if err != nil {
			c.l.Warn("skipping malformed question", zap.Int64("question_id", d.ID), zap.Error(err))
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (c *Client) GetQuestion(ctx context.Context, id int64) (*domain.Question, error) {
	var d QuestionDTO
	if err := c.getJSON(ctx, "questions/"+strconv.FormatInt(id, 10), &d); err != nil {
		return nil, err
	}
	return d.ToDomain()
}

func ballotPath(questionID int64, action string) string {
	return "ballot/" + strconv.FormatInt(questionID, 10) + "/" + action
}

// signedText accepts the signed value either as plain text or as a JSON string.
func signedText(data []byte) (string, error) {
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal([]byte(text), &text); err != nil {
			return "", fmt.Errorf("%w: malformed signature: %w", domain.ErrAuthorityUnavailable, err)
		}
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty signature", domain.ErrAuthorityUnavailable)
	}
	return text, nil
}

func (c *Client) signAt(ctx context.Context, path, blinded string) (string, error) {
	data, err := c.do(ctx, http.MethodPost, path, SignRequest{B: blinded})
	if err != nil {
		return "", err
	}
	return signedText(data)
}

func (c *Client) SignResponseChit(ctx context.Context, questionID int64, blinded string) (string, error) {
	return c.signAt(ctx, ballotPath(questionID, "sign"), blinded)
}

func (c *Client) SignPersonalChit(ctx context.Context, questionID int64, blinded string) (string, error) {
	return c.signAt(ctx, ballotPath(questionID, "signme"), blinded)
}

func (c *Client) Vote(ctx context.Context, questionID int64, payload domain.VotePayload) error {
	_, err := c.do(ctx, http.MethodPost, ballotPath(questionID, "vote"), payload)
	return err
}

func (c *Client) VoteRanked(ctx context.Context, questionID int64, payloads []domain.VotePayload) error {
	if len(payloads) == 0 {
		return errors.New("no ranked payloads")
	}
	_, err := c.do(ctx, http.MethodPost, ballotPath(questionID, "vote_rank"), payloads)
	return err
}

func (c *Client) VerificationRecords(ctx context.Context, questionID int64) ([]domain.VoteRecord, error) {
	var dtos []RecordDTO
	if err := c.getJSON(ctx, ballotPath(questionID, "verify"), &dtos); err != nil {
		return nil, err
	}
	records := make([]domain.VoteRecord, 0, len(dtos))
	for _, d := range dtos {
		records = append(records, d.ToDomain())
	}
	return records, nil
}
