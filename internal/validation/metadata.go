package validation

import (
	"regexp"

	"github.com/mhorak/ibfolio/internal/model"
)

// symbolPattern accepts broker tickers: letters and digits with optional
// exchange-suffix dots, dashes, or the spaces option contracts carry.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 .\-]{0,29}$`)

var countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)

// ValidateSymbol checks a normalized (upper-case) ticker symbol.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return &Error{Fields: map[string]string{"symbol": "symbol is required"}}
	}
	if !symbolPattern.MatchString(symbol) {
		return &Error{Fields: map[string]string{"symbol": "invalid symbol format"}}
	}
	return nil
}

// ValidateMetadata checks a symbol override before it is stored.
func ValidateMetadata(m model.MetadataOverride) error {
	fields := map[string]string{}

	if err := ValidateSymbol(m.Symbol); err != nil {
		fields["symbol"] = "invalid or missing symbol"
	}
	if m.BuyZone != nil && *m.BuyZone <= 0 {
		fields["buyZone"] = "buy zone must be positive"
	}
	if m.SellZone != nil && *m.SellZone <= 0 {
		fields["sellZone"] = "sell zone must be positive"
	}
	if m.BuyZone != nil && m.SellZone != nil && *m.SellZone <= *m.BuyZone {
		fields["sellZone"] = "sell zone must be above buy zone"
	}
	if m.CountryOverride != "" && !countryPattern.MatchString(m.CountryOverride) {
		fields["countryOverride"] = "country override must be a two-letter ISO code"
	}

	if len(fields) > 0 {
		return &Error{Fields: fields}
	}
	return nil
}
