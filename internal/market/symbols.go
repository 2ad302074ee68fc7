package market

import (
	"fmt"
	"regexp"
	"strings"
)

// brokerToYahoo maps broker tickers to their Yahoo symbols for instruments
// whose broker ticker omits the exchange suffix.
var brokerToYahoo = map[string]string{
	"ZAL":  "ZAL.DE",
	"WIZZ": "WIZZ.L",
	"TUI1": "TUI1.DE",
	"BOSS": "BOSS.DE",
	"P911": "P911.DE",
	"ADS":  "ADS.DE",
	"EVO":  "EVO.ST",
}

// optionPattern matches broker-formatted option symbols, e.g.
// "SPY 20DEC24 450.0 C": underlying, DDMMMYY expiry, strike, right.
var optionPattern = regexp.MustCompile(`^(\w+)\s+(\d{2})([A-Z]{3})(\d{2})\s+([\d\.]+)\s+([CP])$`)

var monthNumbers = map[string]string{
	"JAN": "01", "FEB": "02", "MAR": "03", "APR": "04",
	"MAY": "05", "JUN": "06", "JUL": "07", "AUG": "08",
	"SEP": "09", "OCT": "10", "NOV": "11", "DEC": "12",
}

// TranslateSymbol converts a broker ticker into the symbol Yahoo quotes it
// under. Option symbols are rewritten into the OCC-style contract code
// (TICKER + YYMMDD + right + strike in thousandths, zero-padded to eight
// digits); other multi-word symbols have spaces replaced with dashes.
func TranslateSymbol(broker string) string {
	broker = strings.TrimSpace(broker)

	if yahoo, ok := brokerToYahoo[broker]; ok {
		return yahoo
	}

	if m := optionPattern.FindStringSubmatch(broker); m != nil {
		month, ok := monthNumbers[m[3]]
		if !ok {
			return strings.ReplaceAll(broker, " ", "-")
		}
		var strike float64
		if _, err := fmt.Sscanf(m[5], "%f", &strike); err != nil {
			return strings.ReplaceAll(broker, " ", "-")
		}
		// OCC codes carry the strike in thousandths of the currency unit.
		return fmt.Sprintf("%s%s%s%s%s%08d", m[1], m[4], month, m[2], m[6], int(strike*1000))
	}

	return strings.ReplaceAll(broker, " ", "-")
}
