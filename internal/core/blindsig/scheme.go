package blindsig

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var one = big.NewInt(1)

var ErrNotInvertible = errors.New("blinding factor is not invertible modulo n")

// Blind returns m * k^e mod n.
func Blind(m, k, e, n *big.Int) *big.Int {
	b := new(big.Int).Exp(k, e, n)
	b.Mul(b, m)
	return b.Mod(b, n)
}

// Unblind strips k from a signature of a blinded message: k^-1 * t mod n.
func Unblind(signedBlinded, k, n *big.Int) (*big.Int, error) {
	inv := new(big.Int).ModInverse(k, n)
	if inv == nil {
		return nil, ErrNotInvertible
	}
	s := inv.Mul(inv, signedBlinded)
	return s.Mod(s, n), nil
}

// Verify checks s^e mod n == expected.
func Verify(s, e, n, expected *big.Int) bool {
	if s == nil || expected == nil {
		return false
	}
	return new(big.Int).Exp(s, e, n).Cmp(expected) == 0
}

// Sign is the authority side of the scheme: t^d mod n.
func Sign(t, d, n *big.Int) *big.Int {
	return new(big.Int).Exp(t, d, n)
}

// ChooseBlindingFactor samples k uniformly from [1, n) until gcd(k, n) = 1.
// A nil random source means crypto/rand.
func ChooseBlindingFactor(random io.Reader, n *big.Int) (*big.Int, error) {
	if random == nil {
		random = rand.Reader
	}
	if n.Cmp(big.NewInt(2)) < 0 {
		return nil, fmt.Errorf("modulus too small: %s", n)
	}
	bound := new(big.Int).Sub(n, one)
	gcd := new(big.Int)
	for {
		k, err := rand.Int(random, bound)
		if err != nil {
			return nil, fmt.Errorf("failed to draw blinding factor: %w", err)
		}
		k.Add(k, one)
		if gcd.GCD(nil, nil, k, n).Cmp(one) == 0 {
			return k, nil
		}
	}
}

// RandomInRange draws uniformly from [lo, hi].
func RandomInRange(random io.Reader, lo, hi *big.Int) (*big.Int, error) {
	if random == nil {
		random = rand.Reader
	}
	span := new(big.Int).Sub(hi, lo)
	span.Add(span, one)
	if span.Sign() <= 0 {
		return nil, fmt.Errorf("empty range [%s, %s]", lo, hi)
	}
	x, err := rand.Int(random, span)
	if err != nil {
		return nil, err
	}
	return x.Add(x, lo), nil
}
