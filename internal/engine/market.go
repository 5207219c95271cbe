package engine

import (
	"wagerex/internal/common"
	"wagerex/internal/money"
)

// Market is one event's set of mutually exclusive selections. Liquidity is
// tracked per-selection by each selection's OrderBook, not here.
type Market struct {
	ID               uint64
	EventID          uint64
	Type             common.MarketType
	Selections       []uint64
	CloseTimestamp   uint64
	Status           common.MarketStatus
	TotalMatched     money.Scaled
	WinningSelection uint64
	Cursor           uint64
	SettlementStatus common.SettlementStatus

	// OrderIDs records every order ever placed on this market, in placement
	// order, so SettleBatch has a stable sequence to walk a persisted cursor
	// across.
	OrderIDs []uint64
}

// NewMarket returns a freshly opened market over the given selections.
func NewMarket(id, eventID uint64, typ common.MarketType, selections []uint64, closeTimestamp uint64) *Market {
	return &Market{
		ID:             id,
		EventID:        eventID,
		Type:           typ,
		Selections:     selections,
		CloseTimestamp: closeTimestamp,
		Status:         common.Open,
		TotalMatched:   money.Zero(),
	}
}

// HasSelection reports whether selection belongs to this market.
func (m *Market) HasSelection(selection uint64) bool {
	for _, s := range m.Selections {
		if s == selection {
			return true
		}
	}
	return false
}
