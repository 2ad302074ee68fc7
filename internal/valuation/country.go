package valuation

import "strings"

// regionGroups assigns ISO country codes to reporting regions. Countries
// outside every group fall into "Other"; option positions are always
// classified "Derivatives" regardless of underlying country.
var regionGroups = map[string][]string{
	"North America": {"US", "CA"},
	"Europe":        {"DE", "GB", "FR", "IT", "ES", "NL", "CH", "SE", "NO", "DK", "FI", "IE", "AT", "BE", "PT", "CZ", "PL"},
	"Asia":          {"CN", "JP", "KR", "TW", "HK", "IN", "SG", "ID", "MY", "TH", "VN"},
	"South America": {"BR", "AR", "CL", "CO", "PE", "MX"},
	"Pacific":       {"AU", "NZ"},
	"Emerging":      {"ZA", "SA", "TR", "AE"},
}

// suffixCountry maps exchange suffixes to the exchange's country.
var suffixCountry = map[string]string{
	".DE": "DE", ".F": "DE", ".MU": "DE", ".BE": "DE", ".HA": "DE", ".DU": "DE",
	".L": "GB", ".AS": "NL", ".PA": "FR", ".MI": "IT", ".MC": "ES",
	".ST": "SE", ".OL": "NO", ".CO": "DK", ".HE": "FI",
	".HK": "HK", ".T": "JP", ".KS": "KR", ".SS": "CN", ".SZ": "CN",
	".AX": "AU", ".TO": "CA", ".SW": "CH",
	".PR": "CZ",
}

// countryNameISO maps provider-reported domicile names to ISO codes.
// Cayman Islands maps to CN: in practice it marks Chinese tech ADRs
// incorporated offshore.
var countryNameISO = map[string]string{
	"United States": "US", "USA": "US",
	"China": "CN", "Hong Kong": "HK",
	"Germany": "DE", "United Kingdom": "GB", "Great Britain": "GB", "UK": "GB",
	"France": "FR", "Italy": "IT", "Spain": "ES", "Netherlands": "NL",
	"Sweden": "SE", "Norway": "NO", "Denmark": "DK", "Finland": "FI",
	"Switzerland": "CH", "Canada": "CA", "Australia": "AU", "Japan": "JP",
	"South Korea": "KR", "Taiwan": "TW", "India": "IN", "Singapore": "SG",
	"Brazil": "BR", "Mexico": "MX", "South Africa": "ZA",
	"Cayman Islands": "CN",
}

// tickerCountry overrides classification for known ADRs and cross-listings
// where identifier-based detection points at the listing venue instead of
// the economic domicile.
var tickerCountry = map[string]string{
	"BABA": "CN", "9988.HK": "CN",
	"JD": "CN", "BIDU": "CN",
	"PDD": "CN", "TCEHY": "CN",
	"TSM": "TW",
	"NIO": "CN", "XPEV": "CN", "LI": "CN",
	"BYDDY": "CN",
}

// currencyCountry is the last-resort classification by trading currency.
// EUR maps to DE as a generic eurozone stand-in.
var currencyCountry = map[string]string{
	"USD": "US", "GBP": "GB", "EUR": "DE", "CZK": "CZ",
	"HKD": "HK", "SEK": "SE", "PLN": "PL", "AUD": "AU",
	"CAD": "CA", "JPY": "JP", "CHF": "CH", "CNY": "CN",
	"SGD": "SG",
}

// DetectCountry classifies a position's country of economic domicile. The
// cascade, highest priority first: user metadata override, the known-ADR
// table, the live quote's reported domicile, the ISIN prefix, the exchange
// suffix, and finally the trading currency.
func DetectCountry(symbol, isin, liveCountryName, metadataOverride, currency string) string {
	if len(metadataOverride) == 2 {
		return strings.ToUpper(metadataOverride)
	}

	if country, ok := tickerCountry[symbol]; ok {
		return country
	}
	if base, _, found := strings.Cut(symbol, "."); found {
		if country, ok := tickerCountry[base]; ok {
			return country
		}
	}

	if liveCountryName != "" {
		if country, ok := countryNameISO[liveCountryName]; ok {
			return country
		}
	}

	if len(isin) >= 2 {
		return strings.ToUpper(isin[:2])
	}

	for suffix, country := range suffixCountry {
		if strings.HasSuffix(symbol, suffix) {
			return country
		}
	}

	if country, ok := currencyCountry[currency]; ok {
		return country
	}
	return "Unknown"
}

// DetectRegion maps a country code to its reporting region.
func DetectRegion(country string) string {
	for region, countries := range regionGroups {
		for _, c := range countries {
			if c == country {
				return region
			}
		}
	}
	return "Other"
}
