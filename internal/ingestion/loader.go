// Package ingestion loads the bank, card and merchant reference tables from
// CSV batch files into the stores the authorization flow reads.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/card-authorization-gateway/internal/domain/bank"
	"github.com/card-authorization-gateway/internal/domain/issuer"
	"github.com/card-authorization-gateway/internal/domain/merchant"
)

// Kind names the reference table a file feeds.
type Kind string

const (
	KindBanks     Kind = "banks"
	KindCards     Kind = "cards"
	KindMerchants Kind = "merchants"
)

// Batch file names recognised by LoadDir.
const (
	BankFileName     = "BankTable.csv"
	CardFileName     = "BankTable-CCs.csv"
	MerchantFileName = "merchant_data.csv"
)

var kindsByFileName = map[string]Kind{
	BankFileName:     KindBanks,
	CardFileName:     KindCards,
	MerchantFileName: KindMerchants,
}

// loadOrder puts banks before the cards and merchants that refer to them.
var loadOrder = map[Kind]int{
	KindBanks:     0,
	KindCards:     1,
	KindMerchants: 2,
}

// KindForFile dispatches on the base name of path.
func KindForFile(path string) (Kind, bool) {
	kind, ok := kindsByFileName[filepath.Base(path)]
	return kind, ok
}

// RowError is a rejected line.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Summary reports the outcome of loading one file.
type Summary struct {
	Source  string
	Kind    Kind
	Loaded  int
	Skipped int
	Errors  []RowError
}

func (s *Summary) skip(line int, err error) {
	s.Skipped++
	s.Errors = append(s.Errors, RowError{Line: line, Err: err})
}

// Loader upserts batch rows. Invalid rows are skipped; a store failure stops
// the file.
type Loader struct {
	banks      bank.Repository
	issuers    issuer.Repository
	merchants  merchant.Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewLoader(
	logger *slog.Logger,
	banks bank.Repository,
	issuers issuer.Repository,
	merchants merchant.Repository,
	bcryptCost int,
) *Loader {
	return &Loader{
		banks:      banks,
		issuers:    issuers,
		merchants:  merchants,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// LoadDir loads every recognised batch file in dir. Other files are logged and
// skipped.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	type batchFile struct {
		path string
		kind Kind
	}
	var files []batchFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		kind, ok := KindForFile(entry.Name())
		if !ok {
			l.logger.Warn("Skipping unknown batch file", "file", entry.Name())
			continue
		}
		files = append(files, batchFile{path: filepath.Join(dir, entry.Name()), kind: kind})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return loadOrder[files[i].kind] < loadOrder[files[j].kind]
	})

	summaries := make([]*Summary, 0, len(files))
	for _, f := range files {
		summary, err := l.LoadFile(ctx, f.kind, f.path)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// LoadFile loads path as a file of the given kind.
func (l *Loader) LoadFile(ctx context.Context, kind Kind, path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return l.Load(ctx, kind, f, path)
}

// Load reads CSV rows of the given kind from r. source only names the input in
// logs and the summary.
func (l *Loader) Load(ctx context.Context, kind Kind, r io.Reader, source string) (*Summary, error) {
	summary := &Summary{Source: source, Kind: kind}
	logger := l.logger.With("file", source, "kind", string(kind))

	var (
		required []string
		upsert   func(context.Context, row) error
	)
	switch kind {
	case KindBanks:
		required = []string{"BankName", "AccountNum", "Balance"}
		upsert = l.upsertBank
	case KindCards:
		required = []string{"AccountNum", "BankName", "CreditLimit", "CreditUsed"}
		upsert = l.upsertCard
	case KindMerchants:
		required = []string{"MerchantName", "Token", "BankName", "AccountNum"}
		upsert = l.upsertMerchant
	default:
		return nil, fmt.Errorf("unknown batch kind %q", kind)
	}

	onBadRow := func(line int, err error) {
		logger.Warn("Skipping invalid row", "line", line, "error", err)
		summary.skip(line, err)
	}

	err := readRows(r, required, func(rw row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := upsert(ctx, rw)
		var rowErr invalidRowError
		if errors.As(err, &rowErr) {
			onBadRow(rw.line, rowErr.err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s line %d: %w", source, rw.line, err)
		}
		summary.Loaded++
		return nil
	}, onBadRow)
	if err != nil {
		logger.Error("Batch load aborted", "loaded", summary.Loaded, "skipped", summary.Skipped, "error", err)
		return summary, err
	}

	logger.Info("Batch file loaded", "loaded", summary.Loaded, "skipped", summary.Skipped)
	return summary, nil
}

// invalidRowError separates bad input, which skips the row, from store failures.
type invalidRowError struct {
	err error
}

func (e invalidRowError) Error() string {
	return e.err.Error()
}

func invalid(err error) error {
	return invalidRowError{err: err}
}

func (l *Loader) upsertBank(ctx context.Context, rw row) error {
	values, err := rowValues(rw, "BankName", "AccountNum", "Balance")
	if err != nil {
		return invalid(err)
	}

	accountNum, err := parseAccountNum(values[1])
	if err != nil {
		return invalid(err)
	}
	balance, err := parseDecimal("Balance", values[2])
	if err != nil {
		return invalid(err)
	}
	account, err := bank.NewAccount(values[0], accountNum, balance)
	if err != nil {
		return invalid(err)
	}

	return l.banks.Upsert(ctx, account)
}

func (l *Loader) upsertCard(ctx context.Context, rw row) error {
	values, err := rowValues(rw, "AccountNum", "BankName", "CreditLimit", "CreditUsed")
	if err != nil {
		return invalid(err)
	}

	cardNumber, err := issuer.ParseCardNumber(values[0])
	if err != nil {
		return invalid(err)
	}
	limit, err := parseDecimal("CreditLimit", values[2])
	if err != nil {
		return invalid(err)
	}
	used, err := parseDecimal("CreditUsed", values[3])
	if err != nil {
		return invalid(err)
	}
	account, err := issuer.NewAccount(cardNumber, values[1], limit, used)
	if err != nil {
		return invalid(err)
	}

	return l.issuers.Upsert(ctx, account)
}

func (l *Loader) upsertMerchant(ctx context.Context, rw row) error {
	values, err := rowValues(rw, "MerchantName", "Token", "BankName", "AccountNum")
	if err != nil {
		return invalid(err)
	}

	accountNum, err := parseAccountNum(values[3])
	if err != nil {
		return invalid(err)
	}
	credential, err := merchant.NewCredential(values[0], values[1], values[2], accountNum, l.bcryptCost)
	if err != nil {
		return invalid(err)
	}

	return l.merchants.Upsert(ctx, credential)
}

func rowValues(rw row, columns ...string) ([]string, error) {
	values := make([]string, len(columns))
	for i, column := range columns {
		v, err := rw.get(column)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func parseAccountNum(value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid AccountNum %q", value)
	}
	return n, nil
}

func parseDecimal(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", column, value)
	}
	return d, nil
}
