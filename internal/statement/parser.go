// Package statement reads broker activity statements: multi-section CSV
// files where every line carries its section name and a Header/Data
// discriminator. It exposes the normalized records the valuation core
// consumes: trades, open positions, instrument aliases, cash balances,
// and accruals.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Row is one data record keyed by its section's header columns.
type Row map[string]string

// Section is an ordered list of data rows belonging to one statement
// section. A section may be produced by several header batches (e.g. stock
// and option trades carry different commission columns); rows keep only
// the columns their own batch's header declared.
type Section struct {
	Rows []Row
}

// Sections maps section name to its parsed content.
type Sections map[string]*Section

// Parse reads a multi-section activity statement. Each line's first field
// is the section name and the second a Header/Data discriminator; a Header
// line declares the columns for the Data lines that follow it.
//
// Some exports wrap an entire CSV line in quotes inside the first field
// ("nested" rows); section names never contain commas, so a comma in the
// first field means the field itself is the real CSV line.
func Parse(r io.Reader) (Sections, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read statement: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		if strings.Contains(record[0], ",") {
			if nested := parseNested(record[0]); nested != nil {
				rows = append(rows, nested)
				continue
			}
		}
		rows = append(rows, record)
	}

	return buildSections(rows), nil
}

// parseNested re-parses a quoted-whole-line first field, returning nil when
// the field is not itself a CSV line.
func parseNested(field string) []string {
	nested, err := csv.NewReader(strings.NewReader(field)).Read()
	if err != nil || len(nested) < 2 {
		return nil
	}
	return nested
}

func buildSections(rows [][]string) Sections {
	sections := make(Sections)
	headers := make(map[string][]string)

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		section, kind := row[0], row[1]

		switch kind {
		case "Header":
			headers[section] = dedupColumns(row)
		case "Data":
			header, ok := headers[section]
			if !ok {
				continue
			}
			target := sections[section]
			if target == nil {
				target = &Section{}
				sections[section] = target
			}
			target.Rows = append(target.Rows, makeRow(header, row))
		}
	}

	return sections
}

// makeRow zips a header with a data row, padding or truncating the data to
// the header's width.
func makeRow(header, data []string) Row {
	row := make(Row, len(header))
	for i, column := range header {
		if i < len(data) {
			row[column] = strings.TrimSpace(data[i])
		} else {
			row[column] = ""
		}
	}
	return row
}

// dedupColumns disambiguates repeated column names by suffixing a counter,
// so a header like "Amount,Amount" maps to "Amount","Amount_2".
func dedupColumns(columns []string) []string {
	seen := make(map[string]int, len(columns))
	result := make([]string, len(columns))
	for i, column := range columns {
		seen[column]++
		if seen[column] > 1 {
			column = fmt.Sprintf("%s_%d", column, seen[column])
		}
		result[i] = column
	}
	return result
}
