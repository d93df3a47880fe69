package reportgen

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

// renderReport renders the text body for a single report kind.
func renderReport(kind model.ReportKind, entries []LedgerEntry) ([]byte, error) {
	switch kind {
	case model.ReportKindAccounts:
		return renderAccounts(entries), nil
	case model.ReportKindYearly:
		return renderYearly(entries), nil
	case model.ReportKindFinancials:
		return renderFinancials(entries), nil
	default:
		return nil, fmt.Errorf("no renderer for report kind %q", kind)
	}
}

// renderAccounts produces a per-account balance summary. Balance is debit
// minus credit, accounts sorted by name.
func renderAccounts(entries []LedgerEntry) []byte {
	balances := make(map[string]float64)
	for _, entry := range entries {
		balances[entry.Account] += entry.Debit - entry.Credit
	}

	var b strings.Builder
	writeHeading(&b, "ACCOUNT BALANCES")
	for _, account := range slices.Sorted(maps.Keys(balances)) {
		fmt.Fprintf(&b, "%-24s %14.2f\n", account, balances[account])
	}
	fmt.Fprintf(&b, "\naccounts: %d, entries: %d\n", len(balances), len(entries))
	return []byte(b.String())
}

// renderYearly produces per-year debit and credit totals in ascending year
// order.
func renderYearly(entries []LedgerEntry) []byte {
	type totals struct {
		debit  float64
		credit float64
	}
	years := make(map[int]totals)
	for _, entry := range entries {
		t := years[entry.Date.Year()]
		t.debit += entry.Debit
		t.credit += entry.Credit
		years[entry.Date.Year()] = t
	}

	var b strings.Builder
	writeHeading(&b, "YEARLY TOTALS")
	for _, year := range slices.Sorted(maps.Keys(years)) {
		t := years[year]
		fmt.Fprintf(&b, "%d  debit %14.2f  credit %14.2f  net %14.2f\n",
			year, t.debit, t.credit, t.debit-t.credit)
	}
	fmt.Fprintf(&b, "\nyears: %d, entries: %d\n", len(years), len(entries))
	return []byte(b.String())
}

// Financial statement sections. Accounts are classified by name keywords;
// anything unmatched lands in the result section.
const (
	sectionAssets      = "ASSETS"
	sectionLiabilities = "LIABILITIES"
	sectionEquity      = "EQUITY"
	sectionResult      = "RESULT"
)

var sectionKeywords = map[string][]string{
	sectionAssets:      {"cash", "bank", "receivable", "inventory", "asset"},
	sectionLiabilities: {"payable", "loan", "tax", "liability"},
	sectionEquity:      {"equity", "capital", "retained"},
}

func classifyAccount(account string) string {
	name := strings.ToLower(account)
	for _, section := range []string{sectionAssets, sectionLiabilities, sectionEquity} {
		for _, keyword := range sectionKeywords[section] {
			if strings.Contains(name, keyword) {
				return section
			}
		}
	}
	return sectionResult
}

// renderFinancials produces a simple financial statement with per-section
// account balances and totals.
func renderFinancials(entries []LedgerEntry) []byte {
	sections := map[string]map[string]float64{
		sectionAssets:      {},
		sectionLiabilities: {},
		sectionEquity:      {},
		sectionResult:      {},
	}
	for _, entry := range entries {
		section := sections[classifyAccount(entry.Account)]
		section[entry.Account] += entry.Debit - entry.Credit
	}

	var b strings.Builder
	writeHeading(&b, "FINANCIAL STATEMENT")
	for _, section := range []string{sectionAssets, sectionLiabilities, sectionEquity, sectionResult} {
		fmt.Fprintf(&b, "%s\n", section)
		var total float64
		for _, account := range slices.Sorted(maps.Keys(sections[section])) {
			balance := sections[section][account]
			total += balance
			fmt.Fprintf(&b, "  %-22s %14.2f\n", account, balance)
		}
		fmt.Fprintf(&b, "  %-22s %14.2f\n\n", "total", total)
	}
	fmt.Fprintf(&b, "entries: %d\n", len(entries))
	return []byte(b.String())
}

func writeHeading(b *strings.Builder, title string) {
	b.WriteString(title)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", len(title)))
	b.WriteString("\n\n")
}
