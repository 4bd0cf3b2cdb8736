package detector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// RequiredColumns lists the twelve input columns a batch CSV must contain,
// matched by name, case-sensitive.
var RequiredColumns = []string{
	"merchant", "category", "amt", "lat", "long", "merch_lat", "merch_long",
	"hour", "day", "month", "gender", "cc_num",
}

// OutputColumns is the header of the batch result table: the input columns
// minus the four raw coordinates, plus distance and Prediction.
var OutputColumns = []string{
	"merchant", "category", "amt", "hour", "day", "month", "gender", "cc_num",
	"distance", "Prediction",
}

// DownloadFilename is the fixed name offered for batch result downloads.
const DownloadFilename = "fraud_predictions.csv"

// MissingColumnsError reports required CSV columns absent from an upload.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("CSV must contain columns: %s (missing: %s)",
		strings.Join(RequiredColumns, ", "), strings.Join(e.Missing, ", "))
}

// RowError reports a malformed cell. One bad row fails the whole batch; no
// partial results are produced.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Batch holds parsed transactions awaiting classification.
type Batch struct {
	Transactions []Transaction
}

// BatchResult is the fully transformed output table, ready to render or
// serialize. Values are the encoded ones the classifier saw.
type BatchResult struct {
	Columns []string
	Rows    [][]string
}

// ParseBatch reads a CSV stream and validates it against RequiredColumns.
// The header row is required; header cells are BOM- and space-trimmed.
func ParseBatch(r io.Reader) (*Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("empty file")
	}

	header := make([]string, len(records[0]))
	for i, cell := range records[0] {
		header[i] = cleanCell(cell)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	batch := &Batch{Transactions: make([]Transaction, 0, len(records)-1)}
	for n, record := range records[1:] {
		line := n + 2
		cell := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return cleanCell(record[i])
		}
		tx := Transaction{
			Merchant: cell("merchant"),
			Category: cell("category"),
			Gender:   cell("gender"),
			CCNum:    cell("cc_num"),
		}
		var err error
		if tx.Amount, err = decimal.NewFromString(cell("amt")); err != nil {
			return nil, &RowError{Line: line, Column: "amt", Err: err}
		}
		if tx.Lat, err = parseFloatCell(cell("lat")); err != nil {
			return nil, &RowError{Line: line, Column: "lat", Err: err}
		}
		if tx.Long, err = parseFloatCell(cell("long")); err != nil {
			return nil, &RowError{Line: line, Column: "long", Err: err}
		}
		if tx.MerchLat, err = parseFloatCell(cell("merch_lat")); err != nil {
			return nil, &RowError{Line: line, Column: "merch_lat", Err: err}
		}
		if tx.MerchLong, err = parseFloatCell(cell("merch_long")); err != nil {
			return nil, &RowError{Line: line, Column: "merch_long", Err: err}
		}
		if tx.Hour, err = parseIntCell(cell("hour")); err != nil {
			return nil, &RowError{Line: line, Column: "hour", Err: err}
		}
		if tx.Day, err = parseIntCell(cell("day")); err != nil {
			return nil, &RowError{Line: line, Column: "day", Err: err}
		}
		if tx.Month, err = parseIntCell(cell("month")); err != nil {
			return nil, &RowError{Line: line, Column: "month", Err: err}
		}
		batch.Transactions = append(batch.Transactions, tx)
	}
	return batch, nil
}

// WriteCSV serializes a batch result as UTF-8 with a byte-order mark, the
// encoding spreadsheet tools expect for downloads.
func WriteCSV(w io.Writer, result *BatchResult) error {
	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	writer := csv.NewWriter(bw)
	if err := writer.Write(result.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range result.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return bw.Close()
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func parseFloatCell(v string) (float64, error) {
	return strconv.ParseFloat(v, 64)
}

func parseIntCell(v string) (int, error) {
	return strconv.Atoi(v)
}
