package yahoo

// chartResponse represents the raw JSON response structure from the Yahoo
// Finance v8 chart API. Only the fields this application consumes are mapped:
// symbol metadata, the regular market price, and the 52-week range.
//
// The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata (name, currency, price, range)
//   - Chart.Error: Optional error object from the Yahoo API
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				FullExchangeName   string  `json:"fullExchangeName"`
				LongName           string  `json:"longName"`
				Shortname          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				FiftyTwoWeekHigh   float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow    float64 `json:"fiftyTwoWeekLow"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// summaryResponse represents the quoteSummary assetProfile response, used
// to resolve the country of economic domicile for a symbol. The endpoint
// requires an authenticated session (cookies plus crumb).
type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Country string `json:"country"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}
