// Package money implements fixed-scale unsigned big-integer arithmetic for
// odds, stake, liability, and settlement amounts. Representing currency and
// odds as floats invites rounding drift across thousands of fills; this
// package keeps every amount an exact integer at a fixed decimal scale
// instead, backed by math/big so it never overflows.
package money

import (
	"errors"
	"fmt"
	"math/big"
)

// DefaultScale is the engine-wide odds/amount scale: a scale of 100 means
// decimal odds are expressed in hundredths (2.00 == 200, 1.01 == 101).
const DefaultScale = 100

var ErrNegative = errors.New("money: negative amount")

// Scaled is an unsigned fixed-point amount: the wrapped big.Int is the value
// multiplied by the engine's scale. It is always >= 0; the engine has no use
// for signed money.
type Scaled struct {
	v *big.Int
}

// Zero returns the additive identity.
func Zero() Scaled { return Scaled{v: new(big.Int)} }

// FromUint64 builds a Scaled from an already-scaled integer (e.g. odds=200
// at scale 100 means decimal 2.00).
func FromUint64(scaled uint64) Scaled {
	return Scaled{v: new(big.Int).SetUint64(scaled)}
}

// FromBigInt wraps a copy of an existing non-negative big.Int, so later
// changes to b do not affect the returned Scaled.
func FromBigInt(b *big.Int) (Scaled, error) {
	if b.Sign() < 0 {
		return Scaled{}, ErrNegative
	}
	return Scaled{v: new(big.Int).Set(b)}, nil
}

// IsZero reports whether the amount is exactly zero.
func (s Scaled) IsZero() bool { return s.v == nil || s.v.Sign() == 0 }

// Sign returns -1, 0, or +1. A nil-backed Scaled (the zero value of the
// struct) behaves as zero.
func (s Scaled) Sign() int {
	if s.v == nil {
		return 0
	}
	return s.v.Sign()
}

func (s Scaled) big() *big.Int {
	if s.v == nil {
		return new(big.Int)
	}
	return s.v
}

// Cmp compares two Scaled amounts at the same scale.
func (s Scaled) Cmp(o Scaled) int { return s.big().Cmp(o.big()) }

// Add returns s+o.
func (s Scaled) Add(o Scaled) Scaled {
	return Scaled{v: new(big.Int).Add(s.big(), o.big())}
}

// Sub returns s-o. Panics if the result would be negative — callers must
// only subtract amounts already known to be <=, same as the invariant the
// engine maintains on unmatched/liquidity accounting.
func (s Scaled) Sub(o Scaled) Scaled {
	r := new(big.Int).Sub(s.big(), o.big())
	if r.Sign() < 0 {
		panic(fmt.Sprintf("money: Sub underflow: %s - %s", s, o))
	}
	return Scaled{v: r}
}

// Min returns the smaller of s and o.
func (s Scaled) Min(o Scaled) Scaled {
	if s.Cmp(o) <= 0 {
		return s
	}
	return o
}

// MulFrac computes s * num / den using exact big-integer arithmetic
// (multiply before divide, to avoid intermediate truncation) and truncates
// toward zero; all operands are non-negative, so this always rounds down
// in the house's favor.
func (s Scaled) MulFrac(num, den uint64) Scaled {
	if den == 0 {
		panic("money: MulFrac division by zero")
	}
	r := new(big.Int).Mul(s.big(), new(big.Int).SetUint64(num))
	r.Quo(r, new(big.Int).SetUint64(den))
	return Scaled{v: r}
}

// String renders the raw scaled integer (e.g. "10000" at scale 100 for
// decimal 100.00); callers that need decimal presentation divide by Scale.
func (s Scaled) String() string { return s.big().String() }

// Uint64 returns the raw scaled value. Panics if it does not fit (amounts in
// this engine are bounded by what a Ledger can actually hold; overflow here
// would indicate corrupted state, not a legitimate trade).
func (s Scaled) Uint64() uint64 {
	if !s.big().IsUint64() {
		panic("money: Scaled value does not fit in uint64: " + s.String())
	}
	return s.big().Uint64()
}

// BigInt returns a defensive copy of the underlying big.Int.
func (s Scaled) BigInt() *big.Int { return new(big.Int).Set(s.big()) }
