package model

// Candle is one OHLCV bar. Time is the bar's opening time in unix seconds,
// for both intraday and daily resolutions.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// OHLCV is the candle history for one symbol over a named range.
type OHLCV struct {
	Symbol  string   `json:"symbol"`
	Range   string   `json:"range"`
	Candles []Candle `json:"candles"`
}
