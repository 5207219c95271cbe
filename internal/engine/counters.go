package engine

import "wagerex/internal/common"

// StatusCounters tracks how many orders currently sit in each lifecycle
// status. Every status change, anywhere in the engine, goes through
// Transition so the counts can never drift out of sync with the orders they
// describe — no code path updates them any other way.
type StatusCounters struct {
	counts [6]uint64
}

// Observe counts a brand-new order that has never been counted before. It
// must be called exactly once per order, at placement.
func (c *StatusCounters) Observe(status common.BetStatus) {
	c.counts[status]++
}

// Transition moves one order's count from old to new. It saturates at zero
// instead of panicking on an already-drained counter.
func (c *StatusCounters) Transition(old, new common.BetStatus) {
	if old == new {
		return
	}
	if c.counts[old] > 0 {
		c.counts[old]--
	}
	c.counts[new]++
}

// Count returns the current count for a single status.
func (c *StatusCounters) Count(status common.BetStatus) uint64 {
	return c.counts[status]
}

// Total returns the count across all statuses.
func (c *StatusCounters) Total() uint64 {
	var total uint64
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Snapshot returns a copy of every status's count, keyed by status.
func (c *StatusCounters) Snapshot() map[common.BetStatus]uint64 {
	out := make(map[common.BetStatus]uint64, len(c.counts))
	for i, n := range c.counts {
		out[common.BetStatus(i)] = n
	}
	return out
}
