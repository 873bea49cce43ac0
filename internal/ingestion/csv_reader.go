package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// row is one data line addressed by header name.
type row struct {
	line    int
	columns map[string]int
	values  []string
}

// get returns the trimmed value of column, or an error when the line is too short.
func (r row) get(column string) (string, error) {
	i := r.columns[column]
	if i >= len(r.values) {
		return "", fmt.Errorf("missing value for %s", column)
	}
	return strings.TrimSpace(r.values[i]), nil
}

// errRowUnreadable marks a line the CSV parser could not split into fields.
var errRowUnreadable = errors.New("unreadable row")

// readRows reads the header, checks that every required column is present
// and calls fn for each following line. Column order is free and extra columns
// are ignored. A line the parser rejects is passed to onBadRow and skipped.
func readRows(r io.Reader, required []string, fn func(row) error, onBadRow func(line int, err error)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("file is empty")
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		columns[name] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				onBadRow(parseErr.StartLine, fmt.Errorf("%w: %v", errRowUnreadable, parseErr.Err))
				continue
			}
			return fmt.Errorf("failed to read rows: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if err := fn(row{line: line, columns: columns, values: record}); err != nil {
			return err
		}
	}
}
