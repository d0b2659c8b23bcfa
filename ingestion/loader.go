package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/payermatch/core"
	"github.com/shopspring/decimal"
)

const (
	columnID          = "id"
	columnName        = "name"
	columnDescription = "description"
	columnAmount      = "amount"
)

var naMarkers = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"null": {},
}

var (
	columnCleaner = strings.NewReplacer(" ", "_", "(", "", ")", "", "$", "")
	amountCleaner = strings.NewReplacer("$", "", ",", "", " ", "")
)

// NormalizeColumn canonicalizes a CSV header: trimmed, lower case, spaces
// to underscores and "()$" removed. Any header mentioning an amount maps
// to "amount".
func NormalizeColumn(name string) string {
	col := columnCleaner.Replace(strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))))
	if col == "amount_" || strings.Contains(col, columnAmount) {
		return columnAmount
	}
	return col
}

// ParseAmount parses a monetary amount, ignoring currency symbols and
// thousands separators. Missing or malformed amounts return an invalid
// NullDecimal.
func ParseAmount(raw string) decimal.NullDecimal {
	s := strings.TrimSpace(raw)
	if isNA(s) {
		return decimal.NullDecimal{}
	}
	s = amountCleaner.Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func isNA(s string) bool {
	_, ok := naMarkers[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// table is a CSV file with normalized column lookup.
type table struct {
	reader  *csv.Reader
	columns map[string]int
	line    int
}

func openTable(r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &table{reader: reader, columns: make(map[string]int, len(header)), line: 1}
	for i, h := range header {
		col := NormalizeColumn(h)
		if _, dup := t.columns[col]; !dup {
			t.columns[col] = i
		}
	}
	for _, col := range required {
		if _, ok := t.columns[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return t, nil
}

// next returns the next row, or io.EOF when the file is exhausted.
func (t *table) next() ([]string, error) {
	row, err := t.reader.Read()
	if err != nil {
		return nil, err
	}
	t.line++
	return row, nil
}

// field returns the trimmed value of col in row, or "" when the column is
// absent or the value is a missing marker.
func (t *table) field(row []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if isNA(v) {
		return ""
	}
	return v
}

// LoadUsers reads users from CSV with at least "id" and "name" columns.
func LoadUsers(r io.Reader) ([]core.User, error) {
	logger := slog.Default().With("component", "csv-loader")

	t, err := openTable(r, columnID, columnName)
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}

	var users []core.User
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("users line %d: %w", t.line+1, err)
		}

		id := t.field(row, columnID)
		if id == "" {
			logger.Warn("skipping user without id", "line", t.line)
			continue
		}
		users = append(users, core.User{ID: id, Name: t.field(row, columnName)})
	}

	logger.Debug("loaded users", "count", len(users))
	return users, nil
}

// LoadTransactions reads transactions from CSV with at least "id" and
// "description" columns. The amount column is optional.
func LoadTransactions(r io.Reader) ([]core.Transaction, error) {
	logger := slog.Default().With("component", "csv-loader")

	t, err := openTable(r, columnID, columnDescription)
	if err != nil {
		return nil, fmt.Errorf("transactions: %w", err)
	}
	if _, ok := t.columns[columnAmount]; !ok {
		logger.Warn("transactions file has no amount column")
	}

	var txns []core.Transaction
	malformed := 0
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("transactions line %d: %w", t.line+1, err)
		}

		id := t.field(row, columnID)
		if id == "" {
			logger.Warn("skipping transaction without id", "line", t.line)
			continue
		}

		raw := t.field(row, columnAmount)
		amount := ParseAmount(raw)
		if raw != "" && !amount.Valid {
			malformed++
			logger.Debug("malformed amount", "id", id, "amount", raw)
		}

		txns = append(txns, core.Transaction{
			ID:          id,
			Description: t.field(row, columnDescription),
			Amount:      amount,
		})
	}

	logger.Debug("loaded transactions", "count", len(txns), "malformedAmounts", malformed)
	return txns, nil
}
