package models

import "time"

// Quote is a single market print from the upstream feed.
type Quote struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}

// Bar is a daily OHLCV record used for technical feature extraction.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
