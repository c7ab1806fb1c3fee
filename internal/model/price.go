package model

import "time"

// DateLayout is the calendar-date format used on the wire.
const DateLayout = "2006-01-02"

// PriceRow is a single trading day of an instrument's price history.
type PriceRow struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// PriceSeries holds an instrument's daily history, ascending by date.
type PriceSeries struct {
	Symbol    string
	Source    string
	Rows      []PriceRow
	FetchedAt time.Time
}

// AdjCloses returns the adjusted closing prices of rows in order.
func AdjCloses(rows []PriceRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.AdjClose
	}
	return out
}
