// Package tabular turns raw delimited text into ordered row records. It is
// deliberately tolerant of the artifacts real spreadsheet exports carry:
// byte-order marks, header rows that are not the first line, and header
// lines pasted with a different separator than the data.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// DefaultPreviewRows caps Preview output when the caller passes no limit.
const DefaultPreviewRows = 50

// Options selects how raw text is interpreted.
type Options struct {
	Delimiter  string // field separator; empty means ","
	HeaderRow  int    // 1-based line index of the header row; min 1
	HasHeaders bool   // whether the header row holds column names
}

// Row maps column names to raw cell text. Short lines are padded with empty
// strings; surplus fields beyond the header are dropped.
type Row map[string]string

func (o Options) delimiter() rune {
	if o.Delimiter == "" {
		return ','
	}
	return []rune(o.Delimiter)[0]
}

func (o Options) headerRow() int {
	if o.HeaderRow < 1 {
		return 1
	}
	return o.HeaderRow
}

// stripBOM removes a leading UTF-8 byte-order mark.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

// splitLines splits on newlines without yielding a phantom empty line after
// a trailing newline, matching how line numbers read in an editor.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// repairHeader fixes a common export artifact: a TAB-delimited header line
// over comma-delimited data. Applied only to the header line, only when the
// header is line 1 and the configured delimiter is a comma.
func repairHeader(lines []string, opts Options) {
	if !opts.HasHeaders || opts.headerRow() != 1 || opts.delimiter() != ',' {
		return
	}
	if len(lines) == 0 {
		return
	}
	header := lines[0]
	if strings.Contains(header, "\t") && !strings.Contains(header, ",") {
		lines[0] = strings.ReplaceAll(header, "\t", ",")
	}
}

// parseLine splits a single line into fields. Each line is parsed on its own
// so row numbers always map back to literal file lines, even when a line is
// blank or malformed.
func parseLine(line string, delim rune) ([]string, error) {
	if line == "" {
		return nil, nil
	}
	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	fields, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("parsing line: %w", err)
	}
	return fields, nil
}

// prepare normalizes text and returns the data lines following the header,
// the parsed header fields (nil when HasHeaders is false), and the 1-based
// line number of the first data line.
func prepare(text string, opts Options) (header []string, data []string, firstRow int, err error) {
	lines := splitLines(stripBOM(text))
	repairHeader(lines, opts)

	hr := opts.headerRow()
	if len(lines) < hr {
		return nil, nil, hr + 1, nil
	}

	if opts.HasHeaders {
		fields, err := parseLine(lines[hr-1], opts.delimiter())
		if err != nil {
			return nil, nil, 0, fmt.Errorf("header line %d: %w", hr, err)
		}
		for i, f := range fields {
			fields[i] = strings.TrimSpace(stripBOM(f))
		}
		return fields, lines[hr:], hr + 1, nil
	}

	// Without headers the header row is the first data line. Numbering still
	// starts at headerRow+1 so row numbers stay comparable across modes.
	return nil, lines[hr-1:], hr + 1, nil
}

// alignRow builds a Row from parsed fields. With headers, fields align
// positionally against the header names; without, names are synthesized as
// "Column N" per field.
func alignRow(header, fields []string) Row {
	if header == nil {
		row := make(Row, len(fields))
		for i, f := range fields {
			row[fmt.Sprintf("Column %d", i+1)] = f
		}
		return row
	}
	row := make(Row, len(header))
	for i, name := range header {
		if i < len(fields) {
			row[name] = fields[i]
		} else {
			row[name] = ""
		}
	}
	return row
}

// Headers returns the column names in effect for the given text and options.
// Synthesized names are derived from the first data line when the file
// carries no header row.
func Headers(text string, opts Options) ([]string, error) {
	header, data, _, err := prepare(text, opts)
	if err != nil {
		return nil, err
	}
	if header != nil {
		return header, nil
	}
	if len(data) == 0 {
		return nil, nil
	}
	fields, err := parseLine(data[0], opts.delimiter())
	if err != nil {
		return nil, fmt.Errorf("first data line: %w", err)
	}
	names := make([]string, len(fields))
	for i := range fields {
		names[i] = fmt.Sprintf("Column %d", i+1)
	}
	return names, nil
}

// Preview returns the column names and up to maxRows data rows for UI
// display. maxRows <= 0 means DefaultPreviewRows.
func Preview(text string, opts Options, maxRows int) ([]string, []Row, error) {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}

	names, err := Headers(text, opts)
	if err != nil {
		return nil, nil, err
	}

	var rows []Row
	err = Each(text, opts, func(rowNum int, row Row) error {
		if len(rows) >= maxRows {
			return errStopIteration
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil && !errors.Is(err, errStopIteration) {
		return nil, nil, err
	}
	return names, rows, nil
}

// errStopIteration signals early termination of Each from a callback.
var errStopIteration = errors.New("stop iteration")

// Each calls fn for every data row in order, with the row's 1-based source
// line number. Iteration is restartable: every call re-parses from the text,
// so concurrent or repeated passes never share cursor state. fn returning an
// error stops iteration and propagates it.
func Each(text string, opts Options, fn func(rowNum int, row Row) error) error {
	header, data, firstRow, err := prepare(text, opts)
	if err != nil {
		return err
	}

	for i, line := range data {
		rowNum := firstRow + i
		fields, err := parseLine(line, opts.delimiter())
		if err != nil {
			return fmt.Errorf("line %d: %w", rowNum, err)
		}
		if err := fn(rowNum, alignRow(header, fields)); err != nil {
			return err
		}
	}
	return nil
}
