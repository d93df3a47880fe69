package reportgen

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// ledgerDateLayout is the date format of the first CSV column.
const ledgerDateLayout = "2006-01-02"

// ledgerFilePattern matches the ledger files inside the ledger directory.
const ledgerFilePattern = "entries_*.csv"

// LedgerEntry is one ledger line: date, account, debit, credit.
type LedgerEntry struct {
	Date    time.Time
	Account string
	Debit   float64
	Credit  float64
}

// loadLedger reads every entries_*.csv file in the ledger directory,
// loading files concurrently and flattening results in file-name order.
// A missing directory counts as an empty ledger so dev setups can run on
// simulated delays alone.
func (g *Generator) loadLedger(ctx context.Context) ([]LedgerEntry, error) {
	dirEntries, err := os.ReadDir(g.ledgerDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if g.logger != nil {
				g.logger.WarnContext(ctx, "ledger directory does not exist, reporting on an empty ledger",
					"dir", g.ledgerDir)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger directory: %w", err)
	}

	var files []string
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(ledgerFilePattern, dirEntry.Name()); ok {
			files = append(files, filepath.Join(g.ledgerDir, dirEntry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, nil
	}

	perFile := make([][]LedgerEntry, len(files))
	var group errgroup.Group
	for i, path := range files {
		group.Go(func() error {
			entries, err := parseLedgerFile(path)
			if err != nil {
				return err
			}
			perFile[i] = entries
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var all []LedgerEntry
	for _, entries := range perFile {
		all = append(all, entries...)
	}
	return all, nil
}

func parseLedgerFile(path string) ([]LedgerEntry, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from listing the configured ledger directory
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	name := filepath.Base(path)
	var entries []LedgerEntry
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		entry, err := parseLedgerRecord(record)
		if err != nil {
			// The first row may be a header; anything later is bad data.
			if row == 1 {
				continue
			}
			return nil, fmt.Errorf("%s: row %d: %w", name, row, err)
		}
		entries = append(entries, entry)
	}
}

func parseLedgerRecord(record []string) (LedgerEntry, error) {
	date, err := time.Parse(ledgerDateLayout, record[0])
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("bad date %q", record[0])
	}
	if record[1] == "" {
		return LedgerEntry{}, errors.New("empty account")
	}
	debit, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("bad debit %q", record[2])
	}
	credit, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("bad credit %q", record[3])
	}
	return LedgerEntry{Date: date, Account: record[1], Debit: debit, Credit: credit}, nil
}
