package engine

import (
	"github.com/tidwall/btree"

	"wagerex/internal/common"
	"wagerex/internal/money"
)

// priceLevel holds every resting order at one odds value, in arrival order
// (oldest first), the same "slice of orders behind a price" shape the
// teacher uses for its own PriceLevel.
type priceLevel struct {
	odds   uint64
	orders []*Order
}

type priceLevels = btree.BTreeG[*priceLevel]

// OrderBook is the resting-order book for a single market selection, holding
// separate back and lay sides. Back is sorted (odds DESC, created_at ASC);
// Lay is sorted (odds ASC, created_at ASC) — both sides present their best
// price first under their own comparator.
type OrderBook struct {
	Market    uint64
	Selection uint64

	back *priceLevels
	lay  *priceLevels

	backIndex map[uint64]uint64 // order id -> odds, for O(log n) removal
	layIndex  map[uint64]uint64

	backLiquidity money.Scaled
	layLiquidity  money.Scaled
	backCount     uint64
	layCount      uint64

	// Counters tallies the six lifecycle states over every order ever
	// observed on this selection.
	Counters StatusCounters
}

// NewOrderBook returns an empty book for one market selection.
func NewOrderBook(market, selection uint64) *OrderBook {
	back := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.odds > b.odds // sorted greatest first: best back odds leads
	})
	lay := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.odds < b.odds // sorted least first: best lay odds leads
	})
	return &OrderBook{
		Market:        market,
		Selection:     selection,
		back:          back,
		lay:           lay,
		backIndex:     make(map[uint64]uint64),
		layIndex:      make(map[uint64]uint64),
		backLiquidity: money.Zero(),
		layLiquidity:  money.Zero(),
	}
}

func (b *OrderBook) levels(side common.Side) *priceLevels {
	if side == common.Back {
		return b.back
	}
	return b.lay
}

func (b *OrderBook) index(side common.Side) map[uint64]uint64 {
	if side == common.Back {
		return b.backIndex
	}
	return b.layIndex
}

// Insert adds an unmatched or partially-matched resting order to its side,
// at the position (odds, created_at, id) ordering demands. Insert never
// mutates the book's view of an order already indexed under the same id.
func (b *OrderBook) Insert(o *Order) error {
	if o.Unmatched.IsZero() {
		return nil
	}
	idx := b.index(o.Side)
	if _, exists := idx[o.ID]; exists {
		return ErrDuplicateOrder
	}
	levels := b.levels(o.Side)
	lvl, ok := levels.GetMut(&priceLevel{odds: o.Odds})
	if !ok {
		lvl = &priceLevel{odds: o.Odds}
		levels.Set(lvl)
	}
	pos := 0
	for pos < len(lvl.orders) && lessResting(lvl.orders[pos], o) {
		pos++
	}
	lvl.orders = append(lvl.orders, nil)
	copy(lvl.orders[pos+1:], lvl.orders[pos:])
	lvl.orders[pos] = o
	idx[o.ID] = o.Odds

	if o.Side == common.Back {
		b.backLiquidity = b.backLiquidity.Add(o.Unmatched)
		b.backCount++
	} else {
		b.layLiquidity = b.layLiquidity.Add(o.Unmatched)
		b.layCount++
	}
	return nil
}

// lessResting reports whether a belongs strictly before b within a price
// level: earlier created_at first, ties broken by the lower order id.
func lessResting(a, b *Order) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.ID < b.ID
}

// Remove takes an order off its resting side. It reports ok=false if the
// order is not currently resting (already removed, or never inserted).
func (b *OrderBook) Remove(side common.Side, id uint64) (*Order, bool) {
	idx := b.index(side)
	odds, ok := idx[id]
	if !ok {
		return nil, false
	}
	levels := b.levels(side)
	lvl, ok := levels.GetMut(&priceLevel{odds: odds})
	if !ok {
		delete(idx, id)
		return nil, false
	}
	for i, o := range lvl.orders {
		if o.ID != id {
			continue
		}
		lvl.orders = append(lvl.orders[:i], lvl.orders[i+1:]...)
		delete(idx, id)
		if len(lvl.orders) == 0 {
			levels.Delete(lvl)
		}
		if side == common.Back {
			b.backLiquidity = b.backLiquidity.Sub(o.Unmatched)
			b.backCount--
		} else {
			b.layLiquidity = b.layLiquidity.Sub(o.Unmatched)
			b.layCount--
		}
		return o, true
	}
	// Index and level disagree; treat as not-present rather than panic.
	delete(idx, id)
	return nil, false
}

// PeekBest returns the highest-priority resting order on side, if any.
func (b *OrderBook) PeekBest(side common.Side) (*Order, bool) {
	lvl, ok := b.levels(side).Min()
	if !ok || len(lvl.orders) == 0 {
		return nil, false
	}
	return lvl.orders[0], true
}

// BestOdds returns the best resting odds on side, or 0 if the side is empty.
// It is always derived directly from the tree, never cached, so it can never
// drift from the orders it describes.
func (b *OrderBook) BestOdds(side common.Side) uint64 {
	lvl, ok := b.levels(side).Min()
	if !ok {
		return 0
	}
	return lvl.odds
}

// Liquidity returns the sum of Unmatched across every resting order on side,
// denominated in that side's own risk currency.
func (b *OrderBook) Liquidity(side common.Side) money.Scaled {
	if side == common.Back {
		return b.backLiquidity
	}
	return b.layLiquidity
}

// Size returns the number of resting orders on side.
func (b *OrderBook) Size(side common.Side) uint64 {
	if side == common.Back {
		return b.backCount
	}
	return b.layCount
}

// Walk visits every resting order on side in price-time priority order,
// stopping early if fn returns false.
func (b *OrderBook) Walk(side common.Side, fn func(*Order) bool) {
	levels := b.levels(side)
	levels.Scan(func(lvl *priceLevel) bool {
		for _, o := range lvl.orders {
			if !fn(o) {
				return false
			}
		}
		return true
	})
}

// TopN returns the best n price levels on side as (odds, liquidity) pairs.
func (b *OrderBook) TopN(side common.Side, n int) []LevelView {
	out := make([]LevelView, 0, n)
	b.levels(side).Scan(func(lvl *priceLevel) bool {
		total := money.Zero()
		for _, o := range lvl.orders {
			total = total.Add(o.Unmatched)
		}
		out = append(out, LevelView{Odds: lvl.odds, Liquidity: total})
		return len(out) < n
	})
	return out
}

// LevelView is a read-only projection of one price level, for queries.
type LevelView struct {
	Odds      uint64
	Liquidity money.Scaled
}
