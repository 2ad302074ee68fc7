package statement

import (
	"sort"
	"strings"
)

// transactionSections lists the sections whose rows are events: merging
// overlapping statements concatenates and deduplicates them. Every other
// section is a point-in-time snapshot where only the newest statement's
// copy is kept.
var transactionSections = map[string]bool{
	"Trades":                 true,
	"Dividends":              true,
	"Withholding Tax":        true,
	"Deposits & Withdrawals": true,
	"Fees":                   true,
	"Interest":               true,
	"Corporate Actions":      true,
}

// Merge combines several parsed statements, in the order given, into one.
// Statements are expected oldest-first so snapshot sections resolve to the
// latest export.
func Merge(statements []Sections) Sections {
	merged := make(Sections)

	for _, sections := range statements {
		for name, section := range sections {
			if transactionSections[name] {
				appendDeduped(merged, name, section)
			} else {
				merged[name] = section
			}
		}
	}

	return merged
}

func appendDeduped(merged Sections, name string, section *Section) {
	target := merged[name]
	if target == nil {
		target = &Section{}
		merged[name] = target
	}

	seen := make(map[string]bool, len(target.Rows))
	for _, row := range target.Rows {
		seen[rowKey(row)] = true
	}

	for _, row := range section.Rows {
		key := rowKey(row)
		if seen[key] {
			continue
		}
		seen[key] = true
		target.Rows = append(target.Rows, row)
	}
}

// rowKey builds a canonical identity for a row: all columns, sorted, so
// identical rows from overlapping statements collapse regardless of the
// map's iteration order.
func rowKey(row Row) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(row[k])
		b.WriteByte('\x1f')
	}
	return b.String()
}
