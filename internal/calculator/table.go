package calculator

import (
	"errors"
	"fmt"

	"EventStudy/internal/model"
)

// ErrInvalidWindow is returned for negative window sizes.
var ErrInvalidWindow = errors.New("window sizes must be non-negative")

// Calculate builds the event-study table for rows around p.DateOfInterest.
// Returns are computed over the adjusted close of every row; only rows whose
// relative date lies in [-LowerWindow, UpperWindow] are kept.
func Calculate(rows []model.PriceRow, p model.WindowParameters) ([]model.OutputRow, error) {
	if p.UpperWindow < 0 || p.LowerWindow < 0 {
		return nil, ErrInvalidWindow
	}
	if rows == nil {
		return nil, ErrInputType
	}

	prices := model.AdjCloses(rows)
	returns, err := AbsoluteReturn(prices)
	if err != nil {
		return nil, fmt.Errorf("absolute return: %w", err)
	}
	percents, err := PercentReturn(prices)
	if err != nil {
		return nil, fmt.Errorf("percent return: %w", err)
	}

	wantCM := p.Wants(model.MetricCumulativeReturn)
	wantAV := p.Wants(model.MetricAverageReturn)
	var win *Window
	if wantCM || wantAV {
		win = NewWindow(returns)
	}

	out := make([]model.OutputRow, 0, p.UpperWindow+p.LowerWindow+1)
	for i, r := range rows {
		rel := RelativeDate(r.Date, p.DateOfInterest)
		if rel > p.UpperWindow || rel < -p.LowerWindow {
			continue
		}
		row := model.OutputRow{
			RelativeDate:     rel,
			Date:             DateOnly(r.Date),
			Return:           returns[i],
			ReturnPercentage: percents[i],
			Open:             r.Open,
			High:             r.High,
			Low:              r.Low,
			Close:            r.Close,
			AdjustedClose:    r.AdjClose,
			Volume:           r.Volume,
		}
		if wantCM {
			row.CMReturn = model.Some(win.Cumulative(i, p.LowerWindow, p.UpperWindow))
		}
		if wantAV {
			row.AVReturn = model.Some(win.Average(i, p.LowerWindow, p.UpperWindow))
		}
		out = append(out, row)
	}
	return out, nil
}
