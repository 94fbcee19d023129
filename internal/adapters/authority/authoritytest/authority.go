// Package authoritytest is an in-memory ballot authority with real RSA keys.
// It signs blinded chits, checks votes the way a production authority does
// and serves the authority HTTP contract, so voter code can be exercised end
// to end without a server.
package authoritytest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"sync"

	"github.com/vncsmyrnk/blindpoll/internal/core/blindsig"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
)

const keyBits = 1024

var chitPattern = regexp.MustCompile(`^(\d+) (\d+) (.*)$`)

type Op string

const (
	OpKeys     Op = "keys"
	OpOpen     Op = "open"
	OpQuestion Op = "question"
	OpSign     Op = "sign"
	OpSignMe   Op = "signme"
	OpVote     Op = "vote"
	OpVoteRank Op = "vote_rank"
	OpVerify   Op = "verify"
)

type question struct {
	q        *domain.Question
	key      *rsa.PrivateKey
	personal map[string]string
	response map[string]map[string]bool
	records  []domain.VoteRecord
}

type Authority struct {
	mu        sync.Mutex
	global    *rsa.PrivateKey
	questions map[int64]*question
	order     []int64
	nextID    int64
	failures  map[Op][]error
	calls     map[Op]int
	corrupt   bool
	tamper    func([]domain.VoteRecord) []domain.VoteRecord
	secret    []byte
}

func New() (*Authority, error) {
	global, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate global key: %w", err)
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return &Authority{
		global:    global,
		questions: make(map[int64]*question),
		nextID:    1,
		failures:  make(map[Op][]error),
		calls:     make(map[Op]int),
		secret:    secret,
	}, nil
}

func publicKey(k *rsa.PrivateKey) domain.PublicKey {
	return domain.PublicKey{E: big.NewInt(int64(k.E)), N: k.N}
}

// AddQuestion opens a new question for polling and returns its id.
func (a *Authority) AddQuestion(text string, qtype domain.QuestionType, options ...string) (int64, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return 0, fmt.Errorf("failed to generate question key: %w", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	q, err := domain.NewQuestion(id, text, qtype, domain.QuestionStatusPolling, options, publicKey(key))
	if err != nil {
		return 0, err
	}
	a.nextID++
	a.questions[id] = &question{
		q:        q,
		key:      key,
		personal: make(map[string]string),
		response: make(map[string]map[string]bool),
	}
	a.order = append(a.order, id)
	return id, nil
}

func (a *Authority) Close(id int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if q, ok := a.questions[id]; ok {
		q.q.Status = domain.QuestionStatusClosed
	}
}

// Fail makes the next calls of op fail with errs, one error per call.
func (a *Authority) Fail(op Op, errs ...error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[op] = append(a.failures[op], errs...)
}

// CorruptSignatures makes every signature answer wrong.
func (a *Authority) CorruptSignatures(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.corrupt = on
}

// TamperRecords rewrites the verification report before it is served.
func (a *Authority) TamperRecords(fn func([]domain.VoteRecord) []domain.VoteRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tamper = fn
}

func (a *Authority) Calls(op Op) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[op]
}

func (a *Authority) Records(id int64) []domain.VoteRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	if q, ok := a.questions[id]; ok {
		return append([]domain.VoteRecord(nil), q.records...)
	}
	return nil
}

// enter counts the call and pops an injected failure. Callers hold a.mu.
func (a *Authority) enter(op Op) error {
	a.calls[op]++
	if errs := a.failures[op]; len(errs) > 0 {
		a.failures[op] = errs[1:]
		return errs[0]
	}
	return nil
}

func (a *Authority) lookup(id int64) (*question, error) {
	q, ok := a.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %d: %w", id, domain.ErrQuestionNotFound)
	}
	return q, nil
}

func clone(q *domain.Question) *domain.Question {
	c := *q
	c.Options = append([]domain.ResponseOption(nil), q.Options...)
	return &c
}

func (a *Authority) keys() (domain.PublicKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.enter(OpKeys); err != nil {
		return domain.PublicKey{}, err
	}
	return publicKey(a.global), nil
}

func (a *Authority) openQuestions() ([]*domain.Question, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.enter(OpOpen); err != nil {
		return nil, err
	}
	var out []*domain.Question
	for _, id := range a.order {
		if q := a.questions[id]; !q.q.Closed() {
			out = append(out, clone(q.q))
		}
	}
	return out, nil
}

func (a *Authority) getQuestion(id int64) (*domain.Question, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.enter(OpQuestion); err != nil {
		return nil, err
	}
	q, err := a.lookup(id)
	if err != nil {
		return nil, err
	}
	return clone(q.q), nil
}

func (a *Authority) signWith(key *rsa.PrivateKey, blinded string) (string, error) {
	t, err := blindsig.FromWireString(blinded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrForbidden, err)
	}
	s := blindsig.Sign(t, key.D, key.N)
	if a.corrupt {
		s.Add(s, big.NewInt(1))
	}
	return blindsig.ToWireString(s), nil
}

// signPersonal issues one personal chit per voter and question. Re-signing
// the identical blinded value is allowed.
func (a *Authority) signPersonal(voter string, id int64, blinded string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.enter(OpSignMe); err != nil {
		return "", err
	}
	q, err := a.lookup(id)
	if err != nil {
		return "", err
	}
	if q.q.Closed() {
		return "", fmt.Errorf("question %d closed: %w", id, domain.ErrForbidden)
	}
	if prev, ok := q.personal[voter]; ok && prev != blinded {
		return "", fmt.Errorf("voter already holds a personal chit: %w", domain.ErrForbidden)
	}
	q.personal[voter] = blinded
	return a.signWith(q.key, blinded)
}

// signResponse issues at most one response chit per option to each voter.
func (a *Authority) signResponse(voter string, id int64, blinded string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.enter(OpSign); err != nil {
		return "", err
	}
	q, err := a.lookup(id)
	if err != nil {
		return "", err
	}
	if q.q.Closed() {
		return "", fmt.Errorf("question %d closed: %w", id, domain.ErrForbidden)
	}
	signed := q.response[voter]
	if signed == nil {
		signed = make(map[string]bool)
		q.response[voter] = signed
	}
	if !signed[blinded] && len(signed) >= len(q.q.Options) {
		return "", fmt.Errorf("response chit limit reached: %w", domain.ErrForbidden)
	}
	signed[blinded] = true
	return a.signWith(a.global, blinded)
}

type parsedChit struct {
	questionID int64
	number     string
	text       string
}

func parseChit(text, signed string, key domain.PublicKey) (parsedChit, error) {
	m := chitPattern.FindStringSubmatch(text)
	if m == nil {
		return parsedChit{}, fmt.Errorf("malformed chit %q: %w", text, domain.ErrForbidden)
	}
	qid, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return parsedChit{}, fmt.Errorf("malformed chit %q: %w", text, domain.ErrForbidden)
	}
	s, err := blindsig.FromWireString(signed)
	if err != nil || !blindsig.Verify(s, key.E, key.N, blindsig.EncodeMessage(text)) {
		return parsedChit{}, fmt.Errorf("bad signature on chit %q: %w", text, domain.ErrForbidden)
	}
	return parsedChit{questionID: qid, number: m[2], text: m[3]}, nil
}

// record validates one payload into a vote record. Callers hold a.mu.
func (a *Authority) record(q *question, p domain.VotePayload) (domain.VoteRecord, error) {
	me, err := parseChit(p.MeChit, p.MeChitSigned, publicKey(q.key))
	if err != nil {
		return domain.VoteRecord{}, err
	}
	resp, err := parseChit(p.ResponseChit, p.ResponseChitSigned, publicKey(a.global))
	if err != nil {
		return domain.VoteRecord{}, err
	}
	if me.questionID != q.q.ID || resp.questionID != q.q.ID || me.text != "me" {
		return domain.VoteRecord{}, fmt.Errorf("chits do not belong to question %d: %w", q.q.ID, domain.ErrForbidden)
	}
	limit := 1
	if q.q.Ranked() {
		limit = len(q.q.Options)
	}
	if p.Ranking < 0 || p.Ranking >= limit {
		return domain.VoteRecord{}, fmt.Errorf("ranking %d out of range: %w", p.Ranking, domain.ErrForbidden)
	}
	return domain.VoteRecord{
		QuestionID:         q.q.ID,
		Response:           resp.text,
		Ranking:            p.Ranking,
		VoterChitNumber:    me.number,
		ResponseChitNumber: resp.number,
	}, nil
}

// accept stores records. An identical record is accepted again; a different
// one for the same voter chit and ranking is rejected.
func (q *question) accept(records []domain.VoteRecord) error {
	var fresh []domain.VoteRecord
	for _, r := range records {
		dup := false
		for _, prev := range q.records {
			if prev.VoterChitNumber == r.VoterChitNumber && prev.Ranking == r.Ranking {
				if prev != r {
					return fmt.Errorf("contradictory vote at ranking %d: %w", r.Ranking, domain.ErrForbidden)
				}
				dup = true
			}
		}
		if !dup {
			fresh = append(fresh, r)
		}
	}
	q.records = append(q.records, fresh...)
	return nil
}

func (a *Authority) vote(op Op, id int64, payloads []domain.VotePayload) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.enter(op); err != nil {
		return err
	}
	q, err := a.lookup(id)
	if err != nil {
		return err
	}
	if q.q.Closed() {
		return fmt.Errorf("question %d closed: %w", id, domain.ErrGone)
	}
	records := make([]domain.VoteRecord, 0, len(payloads))
	for _, p := range payloads {
		r, err := a.record(q, p)
		if err != nil {
			return err
		}
		records = append(records, r)
	}
	return q.accept(records)
}

func (a *Authority) verificationRecords(id int64) ([]domain.VoteRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.enter(OpVerify); err != nil {
		return nil, err
	}
	q, err := a.lookup(id)
	if err != nil {
		return nil, err
	}
	records := append([]domain.VoteRecord(nil), q.records...)
	if a.tamper != nil {
		records = a.tamper(records)
	}
	return records, nil
}

// As returns the authority as seen by one voter.
func (a *Authority) As(voter string) ports.Authority {
	return &voterView{a: a, voter: voter}
}

type voterView struct {
	a     *Authority
	voter string
}

func (v *voterView) GetKeys(ctx context.Context) (domain.PublicKey, error) {
	return v.a.keys()
}

func (v *voterView) OpenQuestions(ctx context.Context) ([]*domain.Question, error) {
	return v.a.openQuestions()
}

func (v *voterView) GetQuestion(ctx context.Context, id int64) (*domain.Question, error) {
	return v.a.getQuestion(id)
}

func (v *voterView) SignResponseChit(ctx context.Context, questionID int64, blinded string) (string, error) {
	return v.a.signResponse(v.voter, questionID, blinded)
}

func (v *voterView) SignPersonalChit(ctx context.Context, questionID int64, blinded string) (string, error) {
	return v.a.signPersonal(v.voter, questionID, blinded)
}

func (v *voterView) Vote(ctx context.Context, questionID int64, payload domain.VotePayload) error {
	return v.a.vote(OpVote, questionID, []domain.VotePayload{payload})
}

func (v *voterView) VoteRanked(ctx context.Context, questionID int64, payloads []domain.VotePayload) error {
	return v.a.vote(OpVoteRank, questionID, payloads)
}

func (v *voterView) VerificationRecords(ctx context.Context, questionID int64) ([]domain.VoteRecord, error) {
	return v.a.verificationRecords(questionID)
}
