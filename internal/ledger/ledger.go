// Package ledger provides an in-memory reference implementation of
// ports.Ledger for tests and for cmd/server's default wiring. A production
// deployment escrows real funds elsewhere; this repo's settlement core only
// ever depends on the ports.Ledger interface, never on this package.
package ledger

import (
	"fmt"
	"sync"

	"wagerex/internal/money"
)

type entry struct {
	token  string
	nonce  uint64
	amount money.Scaled
}

// Memory accumulates credits per account; it never fails unless told to.
type Memory struct {
	mu      sync.Mutex
	credits map[string][]entry
	fail    error
}

// New returns an always-succeeding in-memory ledger.
func New() *Memory {
	return &Memory{credits: make(map[string][]entry)}
}

// FailNext makes the next Credit call return err instead of succeeding, to
// exercise the engine's "external failure aborts the operation" contract
// from tests.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *Memory) Credit(account, token string, nonce uint64, amount money.Scaled) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		err := m.fail
		m.fail = nil
		return err
	}
	m.credits[account] = append(m.credits[account], entry{token: token, nonce: nonce, amount: amount})
	return nil
}

// Balance sums every credit ever posted to account in token, across all
// nonces — a convenience for tests, not part of ports.Ledger.
func (m *Memory) Balance(account, token string) money.Scaled {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := money.Zero()
	for _, e := range m.credits[account] {
		if e.token == token {
			total = total.Add(e.amount)
		}
	}
	return total
}

// CreditCount returns how many Credit calls have been recorded for account,
// used by settlement idempotence tests.
func (m *Memory) CreditCount(account string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.credits[account])
}

func (m *Memory) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("ledger.Memory{accounts=%d}", len(m.credits))
}
