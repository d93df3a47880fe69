package model

import (
	"strings"
	"time"
)

// LedgerEntry is one bookkeeping row parsed from a ledger CSV file.
// Amounts are kept in cents to avoid float drift when summing.
type LedgerEntry struct {
	Date        time.Time
	Account     string
	DebitCents  int64
	CreditCents int64
}

// NetCents returns the debit-minus-credit amount of the entry.
func (e LedgerEntry) NetCents() int64 {
	return e.DebitCents - e.CreditCents
}

// Root returns the top-level account segment, e.g. "assets" for "assets:cash".
// Accounts without a segment separator classify as themselves.
func (e LedgerEntry) Root() string {
	account := strings.ToLower(strings.TrimSpace(e.Account))
	if i := strings.Index(account, ":"); i >= 0 {
		return account[:i]
	}
	return account
}
