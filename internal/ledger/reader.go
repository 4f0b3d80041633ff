// Package ledger reads tabular bank-export files and turns each row
// into an unclassified transaction entity.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyeonwoo/ledgerflow/internal/domain"
	"github.com/shopspring/decimal"
)

// Canonical column names. The header row is required; column order is
// free and unknown columns are ignored.
const (
	ColumnDate        = "transaction_date"
	ColumnDescription = "description"
	ColumnAmountIn    = "amount_in"
	ColumnAmountOut   = "amount_out"
	ColumnBalance     = "balance_after"
	ColumnLocation    = "transaction_location"
)

// dateLayouts are the accepted timestamp formats, tried in order.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// RowError reports a malformed row: a required field that is missing or
// of the wrong shape. It is fatal to the whole job.
type RowError struct {
	Line  int // 1-based line number in the source file, header included
	Field string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// File is one fully loaded source file. Rows keep their source order;
// the row count is authoritative for the job's total_rows.
type File struct {
	columns map[string]int
	rows    [][]string
}

// Load reads a whole CSV source file into memory. The first record must
// be the header; data rows may be ragged (short rows surface later as
// RowError on the missing field, not here, so earlier rows still get
// processed and persisted first).
func Load(r io.Reader) (*File, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("source file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{ColumnDate, ColumnDescription, ColumnBalance} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("header is missing required column %q", required)
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return &File{columns: columns, rows: rows}, nil
}

// RowCount returns the number of data rows in the file.
func (f *File) RowCount() int {
	return len(f.rows)
}

// Parse converts the data row at the given 0-based ordinal into a
// transaction with company and category unset. Missing amount fields
// default to zero; a missing or malformed required field returns a
// RowError.
func (f *File) Parse(jobID string, ordinal int) (*domain.Transaction, error) {
	row := f.rows[ordinal]
	line := ordinal + 2 // header is line 1

	field := func(name string) string {
		idx, ok := f.columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rawDate := field(ColumnDate)
	if rawDate == "" {
		return nil, &RowError{Line: line, Field: ColumnDate, Err: fmt.Errorf("missing value")}
	}
	date, err := parseDate(rawDate)
	if err != nil {
		return nil, &RowError{Line: line, Field: ColumnDate, Err: err}
	}

	description := field(ColumnDescription)
	if description == "" {
		return nil, &RowError{Line: line, Field: ColumnDescription, Err: fmt.Errorf("missing value")}
	}

	rawBalance := field(ColumnBalance)
	if rawBalance == "" {
		return nil, &RowError{Line: line, Field: ColumnBalance, Err: fmt.Errorf("missing value")}
	}
	balance, err := decimal.NewFromString(rawBalance)
	if err != nil {
		return nil, &RowError{Line: line, Field: ColumnBalance, Err: err}
	}

	amountIn, err := parseAmount(field(ColumnAmountIn))
	if err != nil {
		return nil, &RowError{Line: line, Field: ColumnAmountIn, Err: err}
	}
	amountOut, err := parseAmount(field(ColumnAmountOut))
	if err != nil {
		return nil, &RowError{Line: line, Field: ColumnAmountOut, Err: err}
	}

	txn := &domain.Transaction{
		JobID:           jobID,
		RowOrdinal:      ordinal,
		TransactionDate: date,
		Description:     description,
		AmountIn:        amountIn,
		AmountOut:       amountOut,
		BalanceAfter:    balance,
		CreatedAt:       time.Now(),
	}
	if loc := field(ColumnLocation); loc != "" {
		txn.TransactionLocation = &loc
	}
	return txn, nil
}

// parseAmount parses an optional money field; absence means zero.
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
