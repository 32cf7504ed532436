// Package settlement is the value-transfer primitive the marketplace
// engine drives. A rail either moves the full amount or fails without
// effect; the engine always calls it last, after all bookkeeping, and
// aborts the whole operation when a transfer fails.
package settlement

import (
	"context"
	"fmt"
)

// Rail collects attached payments into escrow and pays amounts out of
// it. Both calls are atomic: they succeed in full or change nothing.
type Rail interface {
	// Receive takes amount from the caller's account into escrow.
	Receive(ctx context.Context, from string, amount uint64) error
	// Transfer pays amount out of escrow to an account.
	Transfer(ctx context.Context, to string, amount uint64) error
}

// Ledger is the in-memory rail: per-account balances plus a single
// escrow bucket. It is the default rail and the one the engine tests
// run against; value is conserved across every call.
type Ledger struct {
	balances map[string]uint64
	escrow   uint64
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]uint64)}
}

// Deposit funds an account out of thin air. Test and bootstrap helper,
// not part of the Rail contract.
func (l *Ledger) Deposit(account string, amount uint64) {
	l.balances[account] += amount
}

func (l *Ledger) Balance(account string) uint64 {
	return l.balances[account]
}

func (l *Ledger) Escrow() uint64 {
	return l.escrow
}

func (l *Ledger) Receive(ctx context.Context, from string, amount uint64) error {
	if l.balances[from] < amount {
		return fmt.Errorf("receive: account %s holds %d of required %d", from, l.balances[from], amount)
	}
	l.balances[from] -= amount
	l.escrow += amount
	return nil
}

func (l *Ledger) Transfer(ctx context.Context, to string, amount uint64) error {
	if l.escrow < amount {
		return fmt.Errorf("transfer: escrow holds %d of required %d", l.escrow, amount)
	}
	l.escrow -= amount
	l.balances[to] += amount
	return nil
}
