// Package ledger folds decoded balance changes into balances and keeps them
// in a sqlite store.
package ledger

import (
	"github.com/Abdullah1738/smile-token/protocol"
)

// Ledger maps identifiers to signed balances. It has a single owner; it is
// not safe for concurrent use.
type Ledger struct {
	balances map[protocol.Identifier]int64
	order    []protocol.Identifier
	applied  uint64
}

// New returns a ledger holding the genesis allocation.
func New() *Ledger {
	l := &Ledger{}
	l.init()
	return l
}

// init seeds an empty ledger with the genesis allocation.
func (l *Ledger) init() {
	if len(l.balances) > 0 {
		return
	}
	l.balances = make(map[protocol.Identifier]int64)
	l.order = l.order[:0]
	for _, e := range protocol.GenesisState() {
		l.add(e.Name, e.Amount)
	}
}

func (l *Ledger) add(id protocol.Identifier, delta int64) {
	if _, ok := l.balances[id]; !ok {
		l.order = append(l.order, id)
	}
	l.balances[id] += delta
}

// Apply folds ev into l and returns it. A nil or empty l starts from
// genesis. The sender may go negative; the receiver is created if missing.
func Apply(l *Ledger, ev protocol.BalanceChange) *Ledger {
	if l == nil {
		l = New()
	}
	l.init()
	l.add(ev.From, -ev.Value)
	l.add(ev.To, ev.Value)
	l.applied++
	return l
}

// Replay folds events in order starting from genesis.
func Replay(events []protocol.BalanceChange) *Ledger {
	l := New()
	for _, ev := range events {
		Apply(l, ev)
	}
	return l
}

// Balance returns the balance of id and whether it has ever been touched.
func (l *Ledger) Balance(id protocol.Identifier) (int64, bool) {
	v, ok := l.balances[id]
	return v, ok
}

// Balances returns a copy of all balances.
func (l *Ledger) Balances() map[protocol.Identifier]int64 {
	out := make(map[protocol.Identifier]int64, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out
}

// Applied is the number of events folded since genesis.
func (l *Ledger) Applied() uint64 { return l.applied }

// State returns the balances as an ordered state: the genesis sender first,
// then identifiers in the order they were first seen.
func (l *Ledger) State() protocol.BalanceState {
	out := make(protocol.BalanceState, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, protocol.BalanceEntry{Name: id, Amount: l.balances[id]})
	}
	return out
}

func (l *Ledger) Clone() *Ledger {
	return &Ledger{
		balances: l.Balances(),
		order:    append([]protocol.Identifier(nil), l.order...),
		applied:  l.applied,
	}
}
