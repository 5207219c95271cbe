package engine

import (
	"github.com/rs/zerolog/log"

	"wagerex/internal/common"
	"wagerex/internal/events"
	"wagerex/internal/money"
)

// Expire closes a market once its close timestamp has passed and refunds
// every still-resting order's unmatched stake.
//
// m.Status only flips from Open to Closed once every resting order has been
// refunded — refundResting removes each order from its book before
// returning, so a Ledger failure partway through leaves the market still
// Open with exactly the not-yet-refunded orders resting. A retried Expire
// call with the same (or later) now therefore passes the same precondition
// again and only re-walks what is left, making the whole operation
// effectively transactional at its own boundary without needing a
// persisted cursor the way SettleBatch does.
func (e *Engine) Expire(market, now uint64) error {
	m, err := e.market(market)
	if err != nil {
		return err
	}
	if m.Status != common.Open || now < m.CloseTimestamp {
		log.Debug().Uint64("market", market).Err(ErrMarketNotOpen).Msg("expire rejected")
		return ErrMarketNotOpen
	}

	for _, sel := range m.Selections {
		book, err := e.book(market, sel)
		if err != nil {
			continue
		}
		for _, side := range [...]common.Side{common.Back, common.Lay} {
			var resting []*Order
			book.Walk(side, func(o *Order) bool {
				resting = append(resting, o)
				return true
			})
			for _, o := range resting {
				if err := e.refundResting(book, o); err != nil {
					log.Error().Uint64("market", market).Uint64("order", o.ID).Err(err).Msg("expire refund failed")
					return err
				}
			}
		}
	}

	m.Status = common.Closed
	e.sink.MarketClosed(events.MarketClosed{Market: market})
	return nil
}

// refundResting refunds a single resting order's unmatched amount and
// terminalises it. It mutates nothing until the Ledger credit has
// succeeded, so a failure here leaves o fully untouched and still resting
// in book for a retried Expire call to pick back up.
func (e *Engine) refundResting(book *OrderBook, o *Order) error {
	refund := o.Unmatched
	if err := e.ledger.Credit(o.Owner, o.PaymentToken, o.PaymentNonce, refund); err != nil {
		return &LedgerError{Err: err}
	}

	oldStatus := o.Status
	book.Remove(o.Side, o.ID)
	o.Unmatched = money.Zero()
	if o.Matched.Sign() > 0 {
		o.Status = common.Matched
	} else {
		o.Status = common.Canceled
	}
	book.Counters.Transition(oldStatus, o.Status)

	// Same rule as cancel_order: the receipt only burns once the order is
	// fully wound down, not when a Matched remainder still awaits settlement.
	if o.Status == common.Canceled {
		if err := e.receipts.Burn(o.ReceiptHandle); err != nil {
			return &ReceiptError{Err: err}
		}
	}

	e.sink.BetRefunded(events.BetRefunded{Market: book.Market, Selection: o.Selection, OrderID: o.ID, Owner: o.Owner, Amount: refund})
	e.sink.StatusCounterUpdated(events.StatusCounterUpdated{Market: book.Market, Selection: o.Selection, Old: oldStatus, New: o.Status})
	return nil
}
