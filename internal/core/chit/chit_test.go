package chit

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/blindpoll/internal/core/blindsig"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

func signer(t *testing.T) (*rsa.PrivateKey, domain.PublicKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	return key, domain.PublicKey{E: big.NewInt(int64(key.E)), N: key.N}
}

func sign(t *testing.T, key *rsa.PrivateKey, blinded string) string {
	t.Helper()
	m, err := blindsig.FromWireString(blinded)
	require.NoError(t, err)
	return blindsig.ToWireString(blindsig.Sign(m, key.D, key.N))
}

func TestMessageText(t *testing.T) {
	c := &Chit{QuestionID: 7, Number: big.NewInt(12345), Kind: KindPersonal}
	assert.Equal(t, "7 12345 me", c.MessageText())
	assert.Equal(t, "signme", c.SignatureEndpoint())

	r := &Chit{QuestionID: 7, Number: big.NewInt(99), Kind: KindResponse, Response: "Blue Sky"}
	assert.Equal(t, "7 99 Blue Sky", r.MessageText())
	assert.Equal(t, "sign", r.SignatureEndpoint())
}

func TestNewChitNumberInRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		c, err := NewResponse(nil, 1, domain.NewResponseOption("  yes "))
		require.NoError(t, err)
		assert.Equal(t, "yes", c.Response)
		assert.True(t, c.Number.Sign() > 0)
		assert.True(t, c.Number.IsInt64())
	}
}

func TestBlindSignAccept(t *testing.T) {
	key, pub := signer(t)
	c, err := NewPersonal(nil, 3)
	require.NoError(t, err)
	assert.False(t, c.IsSigned())

	k, err := blindsig.ChooseBlindingFactor(nil, pub.N)
	require.NoError(t, err)
	blinded := c.Blind(k, pub)

	require.NoError(t, c.AcceptSigned(sign(t, key, blinded)))
	assert.True(t, c.IsSigned())
	assert.NotEmpty(t, c.SignedText())
}

func TestAcceptSignedRejectsWrongSignature(t *testing.T) {
	_, pub := signer(t)
	other, _ := signer(t)
	c, err := NewResponse(nil, 3, "no")
	require.NoError(t, err)

	k, err := blindsig.ChooseBlindingFactor(nil, pub.N)
	require.NoError(t, err)
	blinded := c.Blind(k, pub)

	err = c.AcceptSigned(sign(t, other, blinded))
	assert.ErrorIs(t, err, domain.ErrSignatureMismatch)
	assert.False(t, c.IsSigned())
	assert.Empty(t, c.SignedText())
}

func TestAcceptSignedRequiresBlinding(t *testing.T) {
	c, err := NewPersonal(nil, 1)
	require.NoError(t, err)
	assert.Error(t, c.AcceptSigned("abc"))
}

func TestMatchesNumber(t *testing.T) {
	c := &Chit{Number: big.NewInt(4611686018427387904)}
	assert.True(t, c.MatchesNumber("4611686018427387904"))
	assert.False(t, c.MatchesNumber("4611686018427387905"))
	assert.False(t, c.MatchesNumber("garbage"))
}

func TestJSONPreservesSignedChit(t *testing.T) {
	key, pub := signer(t)
	c, err := NewResponse(nil, 11, "Option A")
	require.NoError(t, err)
	k, err := blindsig.ChooseBlindingFactor(nil, pub.N)
	require.NoError(t, err)
	require.NoError(t, c.AcceptSigned(sign(t, key, c.Blind(k, pub))))

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var restored Chit
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, c.MessageText(), restored.MessageText())
	assert.True(t, restored.IsSigned())
}

func TestUnmarshalRejectsCorruptChit(t *testing.T) {
	var c Chit
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"weird","number":"1"}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"personal","number":""}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"personal","number":"1","k":"!!"}`), &c))
}
