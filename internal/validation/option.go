package validation

import (
	"time"

	"github.com/mhorak/ibfolio/internal/model"
)

var optionTypes = map[string]bool{
	"BUY CALL": true, "BUY PUT": true,
	"SELL CALL": true, "SELL PUT": true,
}

var optionStatuses = map[string]bool{
	"OPEN": true, "CLOSED": true, "EXPIRED": true, "ASSIGNED": true, "ROLLED": true,
}

var currencyCodes = map[string]bool{
	"USD": true, "EUR": true, "CZK": true, "GBP": true, "SEK": true, "CHF": true,
}

// ValidateOptionTrade checks a journaled option trade before it is stored.
func ValidateOptionTrade(t model.OptionTrade) error {
	fields := map[string]string{}

	if err := ValidateSymbol(t.Ticker); err != nil {
		fields["ticker"] = "invalid or missing ticker"
	}
	if !optionTypes[t.Type] {
		fields["type"] = "type must be one of BUY CALL, BUY PUT, SELL CALL, SELL PUT"
	}
	if t.Strike <= 0 {
		fields["strike"] = "strike must be positive"
	}
	if !optionStatuses[t.Status] {
		fields["status"] = "unknown status"
	}
	if !currencyCodes[t.Currency] {
		fields["currency"] = "unsupported currency"
	}
	if t.Expiration != "" {
		if _, err := time.Parse("2006-01-02", t.Expiration); err != nil {
			fields["expiration"] = "expiration must be YYYY-MM-DD"
		}
	}
	if _, err := time.Parse("2006-01-02", t.DateOpened); err != nil {
		fields["dateOpened"] = "date opened must be YYYY-MM-DD"
	}

	if len(fields) > 0 {
		return &Error{Fields: fields}
	}
	return nil
}
