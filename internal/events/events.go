// Package events defines the engine's audit log records and the EventSink
// port that receives them. The event stream is the canonical external audit
// log: it must be sufficient to reconstruct every state transition, so
// every record carries the market/selection/order ids it is indexed on.
package events

import (
	"wagerex/internal/common"
	"wagerex/internal/money"
)

// EventSink is the narrow interface internal/engine depends on to publish
// its audit trail — one named method per record, rather than a single
// tagged Emit call.
type EventSink interface {
	OrderPlaced(OrderPlaced)
	OrderMatched(OrderMatched)
	OrderCanceled(OrderCanceled)
	MarketClosed(MarketClosed)
	BetRefunded(BetRefunded)
	RewardDistributed(RewardDistributed)
	StatusCounterUpdated(StatusCounterUpdated)
}

// OrderPlaced is emitted once per accepted place_order call, after matching.
type OrderPlaced struct {
	Market    uint64
	Selection uint64
	OrderID   uint64
	Owner     string
	Side      common.Side
	Odds      uint64
	Stake     money.Scaled
}

// OrderMatched is emitted once per Fill applied during placement.
type OrderMatched struct {
	Market         uint64
	Selection      uint64
	TakerID        uint64
	RestingMakerID uint64
	Odds           uint64
	Amount         money.Scaled
}

// OrderCanceled is emitted when cancel_order succeeds.
type OrderCanceled struct {
	Market    uint64
	Selection uint64
	OrderID   uint64
	Refunded  money.Scaled
}

// MarketClosed is emitted once per successful expire call.
type MarketClosed struct {
	Market uint64
}

// BetRefunded is emitted once per resting order refunded during expiry.
type BetRefunded struct {
	Market    uint64
	Selection uint64
	OrderID   uint64
	Owner     string
	Amount    money.Scaled
}

// RewardDistributed is emitted once per terminalised bet during settlement
// that actually carried a payout (Win with matched > 0).
type RewardDistributed struct {
	Market  uint64
	OrderID uint64
	Owner   string
	Amount  money.Scaled
}

// StatusCounterUpdated mirrors a StatusCounters.Transition call, so
// out-of-process observers can reconstruct the six-way tally without
// re-deriving it from every order mutation.
type StatusCounterUpdated struct {
	Market    uint64
	Selection uint64
	Old       common.BetStatus
	New       common.BetStatus
}
