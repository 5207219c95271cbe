package engine

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"wagerex/internal/common"
	"wagerex/internal/events"
)

func cursorKey(market uint64) string { return fmt.Sprintf("market:%d:cursor", market) }

func (e *Engine) persistCursor(market, cursor uint64) error {
	if err := e.store.Set(cursorKey(market), []byte(strconv.FormatUint(cursor, 10))); err != nil {
		log.Error().Uint64("market", market).Err(err).Msg("settlement cursor persist failed")
		return &StoreError{Err: err}
	}
	return nil
}

// SetResult records the final score for a closed market and derives the
// winning selection, owner-only. Market type and event are already on the
// Market record (set at CreateMarket), so SetResult only needs the score.
func (e *Engine) SetResult(caller string, market uint64, scoreHome, scoreAway uint32) error {
	if caller != e.owner {
		log.Debug().Uint64("market", market).Str("caller", caller).Err(ErrUnauthorized).Msg("set_result rejected")
		return ErrUnauthorized
	}
	m, err := e.market(market)
	if err != nil {
		return err
	}
	if m.Status != common.Closed {
		log.Debug().Uint64("market", market).Err(ErrMarketNotClosed).Msg("set_result rejected")
		return ErrMarketNotClosed
	}
	m.WinningSelection = m.Type.Winner(scoreHome, scoreAway)
	m.Cursor = 0
	m.Status = common.Settled
	m.SettlementStatus = common.InProgress
	return e.persistCursor(market, 0)
}

// SettleBatch processes up to batchSize orders from where the last call left
// off. Bounded, resumable, and a no-op once settlement has Completed.
func (e *Engine) SettleBatch(market uint64, batchSize int) (common.SettlementStatus, error) {
	m, err := e.market(market)
	if err != nil {
		return 0, err
	}
	if m.Status != common.Settled {
		log.Debug().Uint64("market", market).Err(ErrMarketNotSettled).Msg("settle_batch rejected")
		return 0, ErrMarketNotSettled
	}
	if m.SettlementStatus == common.Completed {
		return common.Completed, nil // already done, no Ledger calls
	}

	end := m.Cursor + uint64(batchSize)
	if end > uint64(len(m.OrderIDs)) {
		end = uint64(len(m.OrderIDs))
	}

	for i := m.Cursor; i < end; i++ {
		if err := e.persistCursor(market, i); err != nil {
			return common.InProgress, err
		}
		if err := e.settleOne(m, m.OrderIDs[i]); err != nil {
			m.Cursor = i
			return common.InProgress, err
		}
		m.Cursor = i + 1
	}
	if err := e.persistCursor(market, m.Cursor); err != nil {
		return common.InProgress, err
	}

	if m.Cursor >= uint64(len(m.OrderIDs)) {
		m.SettlementStatus = common.Completed
		return common.Completed, nil
	}
	return common.InProgress, nil
}

// settleOne terminalises a single bet, paying out a winner via the Ledger.
// Already-terminal bets (Win/Lost) are skipped, making re-processing a
// crashed batch's already-settled prefix a no-op.
func (e *Engine) settleOne(m *Market, orderID uint64) error {
	o, ok := e.orders[orderID]
	if !ok {
		return nil
	}
	if o.Status == common.Win || o.Status == common.Lost {
		return nil
	}
	if o.Matched.IsZero() {
		return nil
	}

	won := (o.Side == common.Back && o.Selection == m.WinningSelection) ||
		(o.Side == common.Lay && o.Selection != m.WinningSelection)

	oldStatus := o.Status
	if won {
		payout := o.Matched.Add(o.PotentialProfit)
		if err := e.ledger.Credit(o.Owner, o.PaymentToken, o.PaymentNonce, payout); err != nil {
			log.Error().Uint64("market", m.ID).Uint64("order", o.ID).Err(err).Msg("settlement ledger credit failed")
			return &LedgerError{Err: err}
		}
		o.Status = common.Win
		e.sink.RewardDistributed(events.RewardDistributed{Market: m.ID, OrderID: o.ID, Owner: o.Owner, Amount: payout})
	} else {
		o.Status = common.Lost
	}

	// Win and Lost are both terminal: the position this order represents is
	// fully resolved, so its receipt is burned here the way a placed order's
	// unmatched residual burns its receipt on cancel_order.
	if err := e.receipts.Burn(o.ReceiptHandle); err != nil {
		log.Error().Uint64("market", m.ID).Uint64("order", o.ID).Err(err).Msg("settlement receipt burn failed")
		return &ReceiptError{Err: err}
	}

	if book, err := e.book(o.Market, o.Selection); err == nil {
		book.Counters.Transition(oldStatus, o.Status)
		e.sink.StatusCounterUpdated(events.StatusCounterUpdated{Market: o.Market, Selection: o.Selection, Old: oldStatus, New: o.Status})
	}
	return nil
}

// GetSettlementProgress reports how far a market's settlement batch cursor has advanced.
func (e *Engine) GetSettlementProgress(market uint64) (uint64, common.SettlementStatus, error) {
	m, err := e.market(market)
	if err != nil {
		return 0, 0, err
	}
	return m.Cursor, m.SettlementStatus, nil
}
