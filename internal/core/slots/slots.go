// Package slots tracks which independent operations are in flight.
//
// Each slot is a busy flag keyed by a small integer. A slot is acquired
// before a request is issued and released when the request settles,
// whatever the outcome. Acquiring a busy slot is refused, so repeated
// triggers cannot stack requests of the same kind.
package slots

import (
	"fmt"
	"sync"

	"github.com/colonyops/mrview/internal/core/mr"
)

// Slot identifies an independent operation.
type Slot int

const (
	Merge     Slot = 1
	Diff      Slot = 2
	Lifecycle Slot = 3 // close, reopen, comment and comment edits
	Files     Slot = 4
)

func (s Slot) String() string {
	switch s {
	case Merge:
		return "merge"
	case Diff:
		return "diff"
	case Lifecycle:
		return "lifecycle"
	case Files:
		return "files"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// Table holds the busy flags. The zero value is ready to use.
type Table struct {
	mu   sync.Mutex
	busy map[Slot]uint64
	gen  uint64
}

// Lease is proof that a slot was acquired. Releasing a lease taken before
// the last Reset is a no-op.
type Lease struct {
	table *Table
	slot  Slot
	gen   uint64
}

// Acquire marks slot busy. It returns mr.ErrBusy if the slot is already held.
func (t *Table) Acquire(slot Slot) (Lease, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.busy == nil {
		t.busy = make(map[Slot]uint64)
	}

	if _, held := t.busy[slot]; held {
		return Lease{}, fmt.Errorf("%s: %w", slot, mr.ErrBusy)
	}

	t.gen++
	t.busy[slot] = t.gen
	return Lease{table: t, slot: slot, gen: t.gen}, nil
}

// Release clears the slot if this lease still owns it. Safe to call twice.
func (l Lease) Release() {
	if l.table == nil {
		return
	}

	l.table.mu.Lock()
	defer l.table.mu.Unlock()

	if l.table.busy[l.slot] == l.gen {
		delete(l.table.busy, l.slot)
	}
}

// Slot returns the slot this lease holds.
func (l Lease) Slot() Slot {
	return l.slot
}

// Busy reports whether slot is held.
func (t *Table) Busy(slot Slot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, held := t.busy[slot]
	return held
}

// Any reports whether any slot is held.
func (t *Table) Any() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.busy) > 0
}

// Do runs fn while holding slot. The slot is released when fn returns or
// panics.
func (t *Table) Do(slot Slot, fn func() error) error {
	lease, err := t.Acquire(slot)
	if err != nil {
		return err
	}
	defer lease.Release()

	return fn()
}

// Reset clears every slot. Outstanding leases become inert.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.busy)
}
