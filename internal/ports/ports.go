// Package ports declares the narrow interfaces the matching/settlement core
// borrows from its host. None of internal/engine imports a concrete
// implementation of these — only the interfaces — so a transport or
// storage swap never touches matching/settlement logic.
package ports

import "wagerex/internal/money"

// Ledger escrows and releases funds. Credit is modelled as infallible from
// the engine's point of view; any error it does return is surfaced as a
// typed LedgerError and aborts the current operation without partial
// mutation of engine state.
type Ledger interface {
	Credit(account string, token string, nonce uint64, amount money.Scaled) error
}

// ReceiptIssuer mints and burns the opaque bet-receipt handle a front end
// can use to look up or trade a position.
type ReceiptIssuer interface {
	Issue(orderID uint64) (handle string, err error)
	Burn(handle string) error
}

// Store is a keyed get/set backing store for engine state. The engine
// treats it as a plain byte-oriented KV store and owns the
// (de)serialization of its own domain types.
//
// Engine state in this repo lives in memory for the lifetime of the process.
// The only state the engine writes to Store is each market's settlement
// cursor, which SettleBatch persists before every bet it settles (and so
// before that bet's Ledger call). The engine never reads the cursor back
// from Store; markets, books and orders are not written to it.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
}
