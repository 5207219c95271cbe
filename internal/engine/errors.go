package engine

import "errors"

// Error taxonomy. These are sentinel errors rather than a bespoke error
// type hierarchy, so callers can compare with errors.Is.
var (
	ErrMarketNotOpen             = errors.New("engine: market is not open")
	ErrMarketNotClosed           = errors.New("engine: market is not closed")
	ErrMarketNotSettled          = errors.New("engine: market is not settled")
	ErrUnknownMarket             = errors.New("engine: unknown market")
	ErrUnknownSelection          = errors.New("engine: unknown selection")
	ErrUnknownOrder              = errors.New("engine: unknown order")
	ErrUnauthorized              = errors.New("engine: unauthorized")
	ErrInvalidOdds               = errors.New("engine: invalid odds")
	ErrInvalidStake              = errors.New("engine: invalid stake")
	ErrDuplicateOrder            = errors.New("engine: duplicate order")
	ErrNotCancelable             = errors.New("engine: order is not in a cancelable state")
	ErrCounterInvariantViolation = errors.New("engine: status counter invariant violation")
)

// LedgerError wraps a failure surfaced by the external ports.Ledger. Any
// such failure aborts the current operation rather than being retried
// internally.
type LedgerError struct{ Err error }

func (e *LedgerError) Error() string { return "engine: ledger error: " + e.Err.Error() }
func (e *LedgerError) Unwrap() error { return e.Err }

// StoreError wraps a failure surfaced by the external ports.Store.
type StoreError struct{ Err error }

func (e *StoreError) Error() string { return "engine: store error: " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

// ReceiptError wraps a failure surfaced by the external ports.ReceiptIssuer.
type ReceiptError struct{ Err error }

func (e *ReceiptError) Error() string { return "engine: receipt error: " + e.Err.Error() }
func (e *ReceiptError) Unwrap() error { return e.Err }
