// Package blindsig implements RSA blind signatures over chit messages and the
// text encodings used to move big integers around.
package blindsig

import (
	"fmt"
	"math/big"
)

const wireBase = 36

// EncodeMessage packs the UTF-8 bytes of text into one integer, most
// significant byte first.
func EncodeMessage(text string) *big.Int {
	m := new(big.Int)
	for _, b := range []byte(text) {
		m.Lsh(m, 8)
		m.Add(m, big.NewInt(int64(b)))
	}
	return m
}

// DecodeMessage is the inverse of EncodeMessage for messages without leading
// zero bytes.
func DecodeMessage(m *big.Int) string {
	return string(m.Bytes())
}

func ToWireString(x *big.Int) string {
	return x.Text(wireBase)
}

func FromWireString(s string) (*big.Int, error) {
	x, ok := new(big.Int).SetString(s, wireBase)
	if !ok {
		return nil, fmt.Errorf("invalid base-36 integer %q", s)
	}
	return x, nil
}

// ParseDecimal reads the decimal key material served by the authority.
func ParseDecimal(s string) (*big.Int, error) {
	x, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal integer %q", s)
	}
	return x, nil
}
