// Package receipt provides a uuid-backed reference implementation of
// ports.ReceiptIssuer, minting an opaque handle per order the way an
// NFT-style receipt would be minted per position and burned on exit.
package receipt

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrUnknownHandle = errors.New("receipt: unknown handle")

// Issuer mints a fresh uuid handle per order and tracks which handles are
// still live, so Burn can reject a double-burn.
type Issuer struct {
	mu   sync.Mutex
	live map[string]uint64 // handle -> orderID
}

func New() *Issuer {
	return &Issuer{live: make(map[string]uint64)}
}

func (i *Issuer) Issue(orderID uint64) (string, error) {
	handle := uuid.New().String()
	i.mu.Lock()
	defer i.mu.Unlock()
	i.live[handle] = orderID
	return handle, nil
}

func (i *Issuer) Burn(handle string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.live[handle]; !ok {
		return ErrUnknownHandle
	}
	delete(i.live, handle)
	return nil
}

// OrderFor returns the order id a still-live handle was issued for, a
// read-only convenience for tests.
func (i *Issuer) OrderFor(handle string) (uint64, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	id, ok := i.live[handle]
	return id, ok
}
