package collector

import (
	"context"
	"sync"
	"time"

	"EventStudy/internal/model"
)

// StaticFetcher serves fixed histories per symbol, for development and testing.
// It is safe for concurrent use; Series and Err must not change after the
// first fetch.
type StaticFetcher struct {
	Series map[string][]model.PriceRow
	Err    error

	mu    sync.Mutex
	calls int
}

func (s *StaticFetcher) Name() string { return "static" }

// Calls reports how many fetches have been served.
func (s *StaticFetcher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *StaticFetcher) FetchDailyHistory(_ context.Context, symbol string, from, to time.Time) ([]model.PriceRow, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.PriceRow
	for _, r := range s.Series[symbol] {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// GenerateBars builds count weekday bars ending at end, drifting around basePrice.
func GenerateBars(basePrice float64, end time.Time, count int) []model.PriceRow {
	bars := make([]model.PriceRow, count)
	d := end
	for i := count - 1; i >= 0; i-- {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, -1)
		}
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PriceRow{
			Date:     d,
			Open:     p * 0.999,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    p,
			AdjClose: p,
			Volume:   1000000,
		}
		d = d.AddDate(0, 0, -1)
	}
	return bars
}
