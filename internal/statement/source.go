package statement

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mhorak/ibfolio/internal/apperrors"
	"github.com/mhorak/ibfolio/internal/model"
)

// DirSource reads every statement CSV in a directory and merges them into
// one consolidated statement.
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource over dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Save writes an uploaded statement file into the directory, creating it if
// needed. The name is reduced to its base to keep uploads inside the
// directory, and only .csv files are accepted. Returns the stored filename.
func (s *DirSource) Save(name string, r io.Reader) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || !strings.HasSuffix(strings.ToLower(name), ".csv") {
		return "", fmt.Errorf("invalid statement filename %q", name)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create statement dir: %w", err)
	}

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create statement file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write statement file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close statement file: %w", err)
	}
	return name, nil
}

// Load parses and merges all statement files, oldest filename first, and
// returns the merged sections together with a content signature. The
// signature is derived from each file's path, modification time, and size,
// so it changes whenever the contributing set of files changes.
//
// An unreadable or unparsable file is skipped with the rest still merged;
// an empty directory yields empty sections and an empty signature.
func (s *DirSource) Load() (Sections, string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Sections{}, "", nil
		}
		return nil, "", fmt.Errorf("read statement dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		files = append(files, filepath.Join(s.dir, entry.Name()))
	}
	sort.Strings(files)

	if len(files) == 0 {
		return Sections{}, "", nil
	}

	hash := sha256.New()
	var parsed []Sections
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			log.Printf("statement: stat %s: %v", path, err)
			continue
		}
		fmt.Fprintf(hash, "%s_%d_%d;", path, info.ModTime().UnixNano(), info.Size())

		f, err := os.Open(path)
		if err != nil {
			log.Printf("statement: open %s: %v", path, err)
			continue
		}
		sections, err := Parse(f)
		f.Close()
		if err != nil {
			log.Printf("statement: parse %s: %v", path, err)
			continue
		}
		parsed = append(parsed, sections)
	}

	return Merge(parsed), fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// Trades extracts executed orders from the Trades section. Rows with
// unparsable quantity, price, or timestamp are skipped; extraction never
// fails as a whole.
func Trades(sections Sections) []model.Trade {
	section := sections["Trades"]
	if section == nil {
		return nil
	}

	var trades []model.Trade
	for _, row := range section.Rows {
		// Subtotal and total rows carry other discriminators.
		if row["DataDiscriminator"] != "Order" {
			continue
		}
		symbol := row["Symbol"]
		if symbol == "" {
			continue
		}

		qty, qtyErr := parseFloat(row["Quantity"])
		price, priceErr := parseFloat(row["T. Price"])
		when, timeErr := parseDateTime(row["Date/Time"])
		if qtyErr != nil || priceErr != nil || timeErr != nil || qty == 0 || price < 0 {
			log.Printf("statement: %v: skipping trade row for %q", apperrors.ErrMalformedRow, symbol)
			continue
		}

		currency := row["Currency"]
		if currency == "" {
			currency = "USD"
		}

		trades = append(trades, model.Trade{
			Symbol:   symbol,
			Quantity: qty,
			Price:    price,
			Currency: currency,
			Fee:      tradeFee(row),
			Time:     when,
		})
	}
	return trades
}

// tradeFee reads the commission from whichever column the row's header
// batch carried; stock and option batches name it differently.
func tradeFee(row Row) float64 {
	for _, column := range []string{"Comm/Fee", "Comm in USD"} {
		if raw, ok := row[column]; ok && raw != "" {
			if fee, err := parseFloat(raw); err == nil && fee != 0 {
				return math.Abs(fee)
			}
		}
	}
	return 0
}

// Positions extracts the holdings snapshot from the Open Positions section.
func Positions(sections Sections) []model.Position {
	section := sections["Open Positions"]
	if section == nil {
		return nil
	}

	var positions []model.Position
	for _, row := range section.Rows {
		symbol := row["Symbol"]
		if symbol == "" {
			continue
		}
		qty, err := parseFloat(row["Quantity"])
		if err != nil || qty == 0 {
			continue
		}

		closePrice, _ := parseFloat(row["Close Price"])
		costBasis, _ := parseFloat(row["Cost Basis"])
		mult, _ := parseFloat(row["Mult"])
		if mult == 0 {
			mult = 1
		}

		currency := row["Currency"]
		if currency == "" {
			currency = "USD"
		}

		positions = append(positions, model.Position{
			Symbol:        symbol,
			Quantity:      qty,
			Currency:      currency,
			ClosePrice:    closePrice,
			CostBasis:     costBasis,
			ISIN:          row["ISIN"],
			AssetCategory: row["Asset Category"],
			Multiplier:    mult,
		})
	}
	return positions
}

// Aliases builds the ticker-variant table from the Financial Instrument
// Information section. A symbol field listing several comma-separated
// variants ("EVOs, EVO") maps every variant to the last one, which is the
// canonical listing symbol.
func Aliases(sections Sections) map[string]string {
	aliases := make(map[string]string)
	section := sections["Financial Instrument Information"]
	if section == nil {
		return aliases
	}

	for _, row := range section.Rows {
		value := row["Symbol"]
		if !strings.Contains(value, ",") {
			continue
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		canonical := parts[len(parts)-1]
		for _, part := range parts {
			if part != "" {
				aliases[part] = canonical
			}
		}
	}
	return aliases
}

// CashBalances extracts per-currency cash amounts from the Forex Balances
// section. In that section Description holds the currency code and
// Quantity the amount; dust below one cent is dropped.
func CashBalances(sections Sections) []model.CashBalance {
	section := sections["Forex Balances"]
	if section == nil {
		return nil
	}

	var balances []model.CashBalance
	for _, row := range section.Rows {
		if !strings.Contains(row["Asset Category"], "Forex") {
			continue
		}
		currency := row["Description"]
		amount, err := parseFloat(row["Quantity"])
		if currency == "" || err != nil || math.Abs(amount) < 0.01 {
			continue
		}
		balances = append(balances, model.CashBalance{Currency: currency, Amount: amount})
	}

	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Currency < balances[j].Currency
	})
	return balances
}

// Accruals sums pending interest and dividend accruals from the Net Asset
// Value section, in the account's base currency.
func Accruals(sections Sections) float64 {
	section := sections["Net Asset Value"]
	if section == nil {
		return 0
	}

	var total float64
	for _, row := range section.Rows {
		class := row["Asset Class"]
		if !strings.Contains(class, "Interest Accruals") && !strings.Contains(class, "Dividend Accruals") {
			continue
		}
		if value, err := parseFloat(row["Current Total"]); err == nil {
			total += value
		}
	}
	return total
}

// ReportDate extracts the statement period's end date from the Statement
// section, e.g. "January 1, 2024 - December 31, 2024". Returns false when
// no period field is present or parsable.
func ReportDate(sections Sections) (time.Time, bool) {
	section := sections["Statement"]
	if section == nil {
		return time.Time{}, false
	}

	for _, row := range section.Rows {
		if row["Field Name"] != "Period" {
			continue
		}
		value := row["Field Value"]
		if !strings.Contains(value, "-") {
			continue
		}
		parts := strings.Split(value, "-")
		endPart := strings.TrimSpace(parts[len(parts)-1])
		if date, err := time.Parse("January 2, 2006", endPart); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

// parseFloat parses a statement numeric field, tolerating thousands
// separators.
func parseFloat(value string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(cleaned, 64)
}

// parseDateTime parses a trade timestamp, which exports carry either with
// or without a time component.
func parseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2006-01-02, 15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
