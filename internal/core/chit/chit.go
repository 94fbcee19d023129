// Package chit holds the blind-signable tokens a ballot carries: one personal
// chit proving a distinct voter, and one response chit per response option.
package chit

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/vncsmyrnk/blindpoll/internal/core/blindsig"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

type Kind string

const (
	KindPersonal Kind = "personal"
	KindResponse Kind = "response"
)

const personalText = "me"

var maxNumber = big.NewInt(math.MaxInt64)

type Chit struct {
	QuestionID int64
	Number     *big.Int
	Kind       Kind
	Response   string

	// Signing session: blinding factor and the key it was blinded against.
	K *big.Int
	N *big.Int
	E *big.Int

	Signed *big.Int
}

func NewPersonal(random io.Reader, questionID int64) (*Chit, error) {
	return newChit(random, questionID, KindPersonal, "")
}

func NewResponse(random io.Reader, questionID int64, response domain.ResponseOption) (*Chit, error) {
	return newChit(random, questionID, KindResponse, response.Text())
}

func newChit(random io.Reader, questionID int64, kind Kind, response string) (*Chit, error) {
	number, err := blindsig.RandomInRange(random, big.NewInt(1), maxNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to draw chit number: %w", err)
	}
	return &Chit{
		QuestionID: questionID,
		Number:     number,
		Kind:       kind,
		Response:   response,
	}, nil
}

func (c *Chit) Text() string {
	if c.Kind == KindPersonal {
		return personalText
	}
	return c.Response
}

// SignatureEndpoint is the authority path segment that signs this kind of chit.
func (c *Chit) SignatureEndpoint() string {
	if c.Kind == KindPersonal {
		return "signme"
	}
	return "sign"
}

func (c *Chit) MessageText() string {
	return fmt.Sprintf("%d %s %s", c.QuestionID, c.Number.String(), c.Text())
}

func (c *Chit) Message() *big.Int {
	return blindsig.EncodeMessage(c.MessageText())
}

// Blind starts a signing session against key with blinding factor k and
// returns the blinded message in wire form.
func (c *Chit) Blind(k *big.Int, key domain.PublicKey) string {
	c.K = k
	c.N = key.N
	c.E = key.E
	return blindsig.ToWireString(blindsig.Blind(c.Message(), k, key.E, key.N))
}

// AcceptSigned unblinds the authority's answer and keeps it only if it is a
// valid signature of this chit's message.
func (c *Chit) AcceptSigned(signedBlinded string) error {
	if c.K == nil || c.N == nil || c.E == nil {
		return fmt.Errorf("chit %s was never blinded", c.Number)
	}
	t, err := blindsig.FromWireString(signedBlinded)
	if err != nil {
		return err
	}
	s, err := blindsig.Unblind(t, c.K, c.N)
	if err != nil {
		return err
	}
	if !blindsig.Verify(s, c.E, c.N, c.Message()) {
		c.Signed = nil
		return fmt.Errorf("%s chit %s: %w", c.Kind, c.Number, domain.ErrSignatureMismatch)
	}
	c.Signed = s
	return nil
}

// IsSigned reports whether a signature is present and verifies.
func (c *Chit) IsSigned() bool {
	if c.Signed == nil || c.N == nil || c.E == nil {
		return false
	}
	return blindsig.Verify(c.Signed, c.E, c.N, c.Message())
}

func (c *Chit) SignedText() string {
	if c.Signed == nil {
		return ""
	}
	return blindsig.ToWireString(c.Signed)
}

// MatchesNumber compares against a decimal chit number from a vote record.
func (c *Chit) MatchesNumber(decimal string) bool {
	n, ok := new(big.Int).SetString(decimal, 10)
	return ok && n.Cmp(c.Number) == 0
}

type chitJSON struct {
	QuestionID    int64  `json:"questionID"`
	Kind          Kind   `json:"kind"`
	Number        string `json:"number"`
	Response      string `json:"response,omitempty"`
	K             string `json:"k,omitempty"`
	N             string `json:"n,omitempty"`
	E             string `json:"e,omitempty"`
	SignedMessage string `json:"signedMessage,omitempty"`
}

func wire(x *big.Int) string {
	if x == nil {
		return ""
	}
	return blindsig.ToWireString(x)
}

func unwire(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return blindsig.FromWireString(s)
}

func (c *Chit) MarshalJSON() ([]byte, error) {
	return json.Marshal(chitJSON{
		QuestionID:    c.QuestionID,
		Kind:          c.Kind,
		Number:        wire(c.Number),
		Response:      c.Response,
		K:             wire(c.K),
		N:             wire(c.N),
		E:             wire(c.E),
		SignedMessage: wire(c.Signed),
	})
}

func (c *Chit) UnmarshalJSON(data []byte) error {
	var raw chitJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind != KindPersonal && raw.Kind != KindResponse {
		return fmt.Errorf("unknown chit kind %q", raw.Kind)
	}
	number, err := unwire(raw.Number)
	if err != nil {
		return err
	}
	if number == nil || number.Sign() <= 0 {
		return fmt.Errorf("chit has no number")
	}
	out := Chit{QuestionID: raw.QuestionID, Kind: raw.Kind, Number: number, Response: raw.Response}
	for _, f := range []struct {
		dst **big.Int
		src string
	}{{&out.K, raw.K}, {&out.N, raw.N}, {&out.E, raw.E}, {&out.Signed, raw.SignedMessage}} {
		if *f.dst, err = unwire(f.src); err != nil {
			return err
		}
	}
	*c = out
	return nil
}
