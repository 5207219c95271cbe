// Package engine is the matching and settlement core: per-selection order
// books, the crossing algorithm, and the settlement/expiry pipelines. It is
// deliberately single-threaded — every exported method is a closed unit of
// work invoked serially by the host — and depends only on the narrow
// ports.Ledger / ports.ReceiptIssuer / ports.Store interfaces and the
// events.EventSink port, never on a concrete transport or storage
// implementation.
package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"wagerex/internal/common"
	"wagerex/internal/events"
	"wagerex/internal/money"
	"wagerex/internal/ports"
)

// bookKey identifies one (market, selection) order book.
type bookKey struct {
	market    uint64
	selection uint64
}

// Engine owns every OrderBook, Market, and Order in the process.
type Engine struct {
	owner    string
	ledger   ports.Ledger
	receipts ports.ReceiptIssuer
	store    ports.Store
	sink     events.EventSink

	nextOrderID uint64
	markets     map[uint64]*Market
	books       map[bookKey]*OrderBook
	orders      map[uint64]*Order
}

// New returns an Engine with no markets yet configured. owner is the only
// account authorised to call SetResult.
func New(owner string, ledger ports.Ledger, receipts ports.ReceiptIssuer, store ports.Store, sink events.EventSink) *Engine {
	return &Engine{
		owner:    owner,
		ledger:   ledger,
		receipts: receipts,
		store:    store,
		sink:     sink,
		markets:  make(map[uint64]*Market),
		books:    make(map[bookKey]*OrderBook),
		orders:   make(map[uint64]*Order),
	}
}

// CreateMarket opens a new market over the given selections, giving
// PlaceOrder something to check its "market is Open" precondition against.
func (e *Engine) CreateMarket(id, eventID uint64, typ common.MarketType, selections []uint64, closeTimestamp uint64) (*Market, error) {
	if _, exists := e.markets[id]; exists {
		err := fmt.Errorf("engine: market %d already exists", id)
		log.Debug().Uint64("market", id).Err(err).Msg("create_market rejected")
		return nil, err
	}
	m := NewMarket(id, eventID, typ, selections, closeTimestamp)
	e.markets[id] = m
	for _, sel := range selections {
		e.books[bookKey{id, sel}] = NewOrderBook(id, sel)
	}
	return m, nil
}

func (e *Engine) market(id uint64) (*Market, error) {
	m, ok := e.markets[id]
	if !ok {
		log.Debug().Uint64("market", id).Err(ErrUnknownMarket).Msg("operation rejected")
		return nil, ErrUnknownMarket
	}
	return m, nil
}

func (e *Engine) book(market, selection uint64) (*OrderBook, error) {
	b, ok := e.books[bookKey{market, selection}]
	if !ok {
		log.Debug().Uint64("market", market).Uint64("selection", selection).Err(ErrUnknownSelection).Msg("operation rejected")
		return nil, ErrUnknownSelection
	}
	return b, nil
}

// PlaceOrder validates, matches, and books a new order against a market
// selection, returning the newly assigned order id.
func (e *Engine) PlaceOrder(owner string, market, selection uint64, side common.Side, odds uint64, stake money.Scaled, token string, nonce uint64, now uint64) (uint64, error) {
	m, err := e.market(market)
	if err != nil {
		return 0, err
	}
	if m.Status != common.Open {
		log.Debug().Uint64("market", market).Err(ErrMarketNotOpen).Msg("place_order rejected")
		return 0, ErrMarketNotOpen
	}
	if now >= m.CloseTimestamp {
		log.Debug().Uint64("market", market).Err(ErrMarketNotOpen).Msg("place_order rejected")
		return 0, ErrMarketNotOpen
	}
	if !m.HasSelection(selection) {
		log.Debug().Uint64("market", market).Uint64("selection", selection).Err(ErrUnknownSelection).Msg("place_order rejected")
		return 0, ErrUnknownSelection
	}
	book, err := e.book(market, selection)
	if err != nil {
		return 0, err
	}

	e.nextOrderID++
	id := e.nextOrderID
	o, err := NewOrder(id, owner, market, selection, side, odds, stake, token, nonce, now)
	if err != nil {
		e.nextOrderID--
		log.Debug().Uint64("market", market).Uint64("selection", selection).Err(err).Msg("place_order rejected")
		return 0, err
	}

	handle, err := e.receipts.Issue(id)
	if err != nil {
		e.nextOrderID--
		log.Error().Uint64("market", market).Uint64("order", id).Err(err).Msg("receipt issue failed")
		return 0, &ReceiptError{Err: err}
	}
	o.ReceiptHandle = handle

	result := Match(o, book)
	for _, fill := range result.Fills {
		e.applyFill(book, fill)
	}
	o.Matched = result.MatchedOwn
	o.Unmatched = result.ResidualOwn
	o.PotentialProfit = o.PotentialProfit.Add(result.ProfitDelta)
	o.Status = deriveStatus(o.RiskAmount(), o.Matched)

	e.orders[id] = o
	book.Counters.Observe(o.Status)
	if !o.Unmatched.IsZero() {
		if err := book.Insert(o); err != nil {
			log.Error().Uint64("market", market).Uint64("order", id).Err(err).Msg("place_order book insert failed")
			return 0, err
		}
	}
	m.TotalMatched = m.TotalMatched.Add(result.MatchedOwn)
	m.OrderIDs = append(m.OrderIDs, id)

	e.sink.OrderPlaced(events.OrderPlaced{
		Market: market, Selection: selection, OrderID: id,
		Owner: owner, Side: side, Odds: odds, Stake: stake,
	})
	return id, nil
}

// applyFill updates one maker's bookkeeping for a single Fill and re-files
// it in book if a residual remains.
func (e *Engine) applyFill(book *OrderBook, fill Fill) {
	maker, ok := e.orders[fill.MakerID]
	if !ok {
		return // defensive: should be unreachable, maker ids come from this same book
	}
	oldStatus := maker.Status

	// Take the maker off the book while its Unmatched still holds the amount
	// the book's liquidity was credited with, so Remove debits exactly that.
	book.Remove(maker.Side, maker.ID)

	var delta money.Scaled
	if maker.Side == common.Back {
		delta = fill.Amount
		maker.PotentialProfit = maker.PotentialProfit.Add(fill.Amount.MulFrac(fill.Odds-Scale, Scale))
	} else {
		delta = fill.Amount.MulFrac(fill.Odds-Scale, Scale)
		maker.PotentialProfit = maker.PotentialProfit.Add(fill.Amount)
	}
	maker.Matched = maker.Matched.Add(delta)
	maker.Unmatched = maker.Unmatched.Sub(delta)
	maker.Status = deriveStatus(maker.RiskAmount(), maker.Matched)

	if !maker.Unmatched.IsZero() {
		book.Insert(maker)
	}
	if maker.Status != oldStatus {
		book.Counters.Transition(oldStatus, maker.Status)
		e.sink.StatusCounterUpdated(events.StatusCounterUpdated{
			Market: book.Market, Selection: book.Selection, Old: oldStatus, New: maker.Status,
		})
	}
	e.sink.OrderMatched(events.OrderMatched{
		Market: book.Market, Selection: book.Selection,
		TakerID: fill.TakerID, RestingMakerID: fill.MakerID,
		Odds: fill.Odds, Amount: fill.Amount,
	})
}

// CancelOrder withdraws an order's unmatched residual, refunding it via the
// ledger. Only Unmatched or PartiallyMatched orders are cancelable.
func (e *Engine) CancelOrder(id uint64, now uint64) error {
	o, ok := e.orders[id]
	if !ok {
		log.Debug().Uint64("order", id).Err(ErrUnknownOrder).Msg("cancel_order rejected")
		return ErrUnknownOrder
	}
	if o.Status != common.Unmatched && o.Status != common.PartiallyMatched {
		log.Debug().Uint64("order", id).Str("status", o.Status.String()).Err(ErrNotCancelable).Msg("cancel_order rejected")
		return ErrNotCancelable
	}
	book, err := e.book(o.Market, o.Selection)
	if err != nil {
		return err
	}
	book.Remove(o.Side, o.ID)

	refund := o.Unmatched
	if err := e.ledger.Credit(o.Owner, o.PaymentToken, o.PaymentNonce, refund); err != nil {
		// State is unchanged except the book removal above; re-insert so the
		// operation leaves the order fully untouched on failure.
		book.Insert(o)
		log.Error().Uint64("order", id).Err(err).Msg("cancel_order ledger credit failed")
		return &LedgerError{Err: err}
	}

	oldStatus := o.Status
	o.Unmatched = money.Zero()
	if o.Matched.Sign() > 0 {
		o.Status = common.Matched
	} else {
		o.Status = common.Canceled
	}
	book.Counters.Transition(oldStatus, o.Status)

	// The receipt's NFT-style lifecycle ends here only once the order is
	// fully wound down (Canceled); a partially matched order still has a
	// live Matched remainder awaiting settlement, so its receipt survives.
	if o.Status == common.Canceled {
		if err := e.receipts.Burn(o.ReceiptHandle); err != nil {
			log.Error().Uint64("order", id).Err(err).Msg("cancel_order receipt burn failed")
			return &ReceiptError{Err: err}
		}
	}

	e.sink.OrderCanceled(events.OrderCanceled{Market: o.Market, Selection: o.Selection, OrderID: o.ID, Refunded: refund})
	e.sink.StatusCounterUpdated(events.StatusCounterUpdated{Market: o.Market, Selection: o.Selection, Old: oldStatus, New: o.Status})
	return nil
}

// BookView is the read-only projection a book query returns.
type BookView struct {
	BackLiquidity money.Scaled
	LayLiquidity  money.Scaled
	BestBackOdds  uint64
	BestLayOdds   uint64
	Counters      map[common.BetStatus]uint64
}

// GetBook returns a snapshot of one market selection's order book.
func (e *Engine) GetBook(market, selection uint64) (BookView, error) {
	book, err := e.book(market, selection)
	if err != nil {
		return BookView{}, err
	}
	return BookView{
		BackLiquidity: book.Liquidity(common.Back),
		LayLiquidity:  book.Liquidity(common.Lay),
		BestBackOdds:  book.BestOdds(common.Back),
		BestLayOdds:   book.BestOdds(common.Lay),
		Counters:      book.Counters.Snapshot(),
	}, nil
}

// GetTopN returns the best n price levels on one side of a book.
func (e *Engine) GetTopN(market, selection uint64, side common.Side, n int) ([]LevelView, error) {
	book, err := e.book(market, selection)
	if err != nil {
		return nil, err
	}
	return book.TopN(side, n), nil
}

// GetOrder returns a defensive copy of a single order's current state.
func (e *Engine) GetOrder(id uint64) (*Order, error) {
	o, ok := e.orders[id]
	if !ok {
		log.Debug().Uint64("order", id).Err(ErrUnknownOrder).Msg("get_order rejected")
		return nil, ErrUnknownOrder
	}
	cp := *o
	return &cp, nil
}
