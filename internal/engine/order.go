package engine

import (
	"wagerex/internal/common"
	"wagerex/internal/money"
)

// Scale is the fixed-point denominator odds and money are expressed in:
// odds of 2.00 is represented as 200 at Scale=100.
const Scale = money.DefaultScale

// Order is a single resting or fully-processed back/lay bet.
//
// Stake and Liability are fixed at placement and never change. Matched and
// Unmatched are always denominated in the order's own risk currency: stake
// for a Back order, liability for a Lay order. The invariant
// Matched+Unmatched == RiskAmount() holds for the lifetime of the order.
type Order struct {
	ID              uint64
	Owner           string
	Market          uint64
	Selection       uint64
	Side            common.Side
	Odds            uint64 // scaled, e.g. 200 means decimal odds 2.00
	Stake           money.Scaled
	Liability       money.Scaled
	Matched         money.Scaled
	Unmatched       money.Scaled
	PotentialProfit money.Scaled
	Status          common.BetStatus
	PaymentToken    string
	PaymentNonce    uint64
	CreatedAt       uint64
	ReceiptHandle   string
}

// RiskAmount is the amount this order puts at risk: stake for Back,
// liability for Lay.
func (o *Order) RiskAmount() money.Scaled {
	if o.Side == common.Back {
		return o.Stake
	}
	return o.Liability
}

// NewOrder constructs a freshly placed, fully unmatched order. Liability is
// derived from stake and odds for Lay orders; it is zero for Back orders.
func NewOrder(id uint64, owner string, market, selection uint64, side common.Side, odds uint64, stake money.Scaled, token string, nonce uint64, createdAt uint64) (*Order, error) {
	if odds <= Scale {
		return nil, ErrInvalidOdds
	}
	if stake.IsZero() {
		return nil, ErrInvalidStake
	}
	liability := money.Zero()
	if side == common.Lay {
		liability = stake.MulFrac(odds-Scale, Scale)
	}
	o := &Order{
		ID:              id,
		Owner:           owner,
		Market:          market,
		Selection:       selection,
		Side:            side,
		Odds:            odds,
		Stake:           stake,
		Liability:       liability,
		Matched:         money.Zero(),
		PotentialProfit: money.Zero(),
		Status:          common.Unmatched,
		PaymentToken:    token,
		PaymentNonce:    nonce,
		CreatedAt:       createdAt,
	}
	o.Unmatched = o.RiskAmount()
	return o, nil
}

// capacityStake returns how much Back-side stake this order's remaining
// unmatched amount can still absorb, converted at the order's own odds for a
// Lay order. Matching always proceeds in stake units regardless of which
// side is taker or maker.
func (o *Order) capacityStake() money.Scaled {
	if o.Side == common.Back {
		return o.Unmatched
	}
	if o.Odds <= Scale {
		return money.Zero()
	}
	return o.Unmatched.MulFrac(Scale, o.Odds-Scale)
}

// deriveStatus computes the lifecycle status implied by a matched amount
// against this order's total risk.
func deriveStatus(risk, matched money.Scaled) common.BetStatus {
	if matched.IsZero() {
		return common.Unmatched
	}
	if matched.Cmp(risk) >= 0 {
		return common.Matched
	}
	return common.PartiallyMatched
}
