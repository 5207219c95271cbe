package engine

import (
	"wagerex/internal/common"
	"wagerex/internal/money"
)

// Fill is one resting order consumed against the incoming order, at the
// resting order's own odds: execution always happens at the maker's price,
// never the taker's limit.
type Fill struct {
	MakerID uint64
	TakerID uint64
	Odds    uint64 // execution price, the maker's own resting odds
	Amount  money.Scaled // stake-denominated match quantity
}

// MatchResult is everything the incoming order itself needs to update its
// own bookkeeping after a walk across the opposite book.
type MatchResult struct {
	Fills       []Fill
	MatchedOwn  money.Scaled // matched, in the incoming order's own risk currency
	ResidualOwn money.Scaled // unmatched remainder, same currency
	ProfitDelta money.Scaled // potential_profit delta for the incoming order
}

// Match walks book's opposite side in price-time priority and computes the
// fills an incoming order would generate. It is pure with respect to book:
// it never mutates any order or the book's resting structure. The caller
// (Engine.PlaceOrder) is responsible for applying the returned fills —
// removing and, where a remainder is left, re-inserting each maker, and
// inserting any residual of the incoming order itself.
func Match(incoming *Order, book *OrderBook) MatchResult {
	opposite := common.Back
	if incoming.Side == common.Back {
		opposite = common.Lay
	}

	remainingStake := incoming.capacityStake()
	matchedStake := money.Zero()
	var fills []Fill
	backTakerProfit := money.Zero() // only meaningful when incoming.Side == Back

	book.Walk(opposite, func(r *Order) bool {
		if !crosses(incoming.Side, incoming.Odds, r.Odds) {
			return false // book is sorted best-first; no further level can cross
		}
		makerCap := r.capacityStake()
		if makerCap.IsZero() {
			return true
		}
		fill := remainingStake.Min(makerCap)
		if fill.IsZero() {
			return false
		}
		fills = append(fills, Fill{MakerID: r.ID, TakerID: incoming.ID, Odds: r.Odds, Amount: fill})
		remainingStake = remainingStake.Sub(fill)
		matchedStake = matchedStake.Add(fill)
		backTakerProfit = backTakerProfit.Add(fill.MulFrac(r.Odds-Scale, Scale))
		return !remainingStake.IsZero()
	})

	res := MatchResult{Fills: fills}
	if incoming.Side == common.Back {
		res.MatchedOwn = matchedStake
		res.ResidualOwn = remainingStake
		res.ProfitDelta = backTakerProfit
	} else {
		res.MatchedOwn = matchedStake.MulFrac(incoming.Odds-Scale, Scale)
		res.ResidualOwn = incoming.Unmatched.Sub(res.MatchedOwn)
		res.ProfitDelta = matchedStake
	}
	return res
}

// crosses reports whether an incoming order at odds `in` may match against a
// resting order at odds `rest`:
//   - Back taker matches Lay makers with rest <= in (accepts at least as
//     generous a price as requested, measured on the Lay side of the book).
//   - Lay taker matches Back makers with rest >= in.
func crosses(side common.Side, in, rest uint64) bool {
	if side == common.Back {
		return in >= rest
	}
	return in <= rest
}
