package collector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/singleflight"

	"EventStudy/internal/cache"
	"EventStudy/internal/calculator"
	"EventStudy/internal/model"
	"EventStudy/internal/observability"
)

// Collector fetches the price history an event study needs, with caching and
// de-duplication of concurrent identical fetches.
type Collector struct {
	Fetcher      Fetcher
	Cache        *cache.SeriesCache
	Metrics      *observability.Metrics
	PaddingDays  int
	FetchTimeout time.Duration

	group singleflight.Group
}

const defaultFetchTimeout = 30 * time.Second

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, c *cache.SeriesCache, m *observability.Metrics, paddingDays int) *Collector {
	return &Collector{Fetcher: fetcher, Cache: c, Metrics: m, PaddingDays: paddingDays, FetchTimeout: defaultFetchTimeout}
}

// lookback converts a window of trading days into calendar days covering
// 2w+1 trading days, plus padding for holidays.
func lookback(w, padding int) int {
	return int(math.Ceil(float64(2*w+1)*7/5)) + padding
}

// FetchRange returns the calendar range to fetch so that windowed metrics at
// the edges of [-LowerWindow, UpperWindow] have enough surrounding rows.
func FetchRange(p model.WindowParameters, paddingDays int) (from, to time.Time) {
	doi := calculator.DateOnly(p.DateOfInterest)
	from = doi.AddDate(0, 0, -lookback(p.LowerWindow, paddingDays))
	to = doi.AddDate(0, 0, lookback(p.UpperWindow, paddingDays))
	return from, to
}

// Collect returns the ordered, duplicate-free history of symbol around p.
func (c *Collector) Collect(ctx context.Context, symbol string, p model.WindowParameters) (*model.PriceSeries, error) {
	from, to := FetchRange(p, c.PaddingDays)
	key := cache.Key(c.Fetcher.Name(), symbol, from, to)

	if s, ok := c.Cache.Get(key); ok {
		c.Metrics.ObserveCache(true)
		return s, nil
	}
	c.Metrics.ObserveCache(false)

	// The shared fetch outlives any one caller; each caller stops waiting on its own ctx.
	ch := c.group.DoChan(key, func() (interface{}, error) {
		timeout := c.FetchTimeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		start := time.Now()
		rows, err := c.Fetcher.FetchDailyHistory(fctx, symbol, from, to)
		c.Metrics.ObserveFetch(c.Fetcher.Name(), time.Since(start), err)
		if err != nil {
			return nil, err
		}
		rows = Clip(Normalize(rows), from, to)
		if len(rows) == 0 {
			return nil, fmt.Errorf("%s %s..%s: %w", symbol, from.Format(model.DateLayout), to.Format(model.DateLayout), ErrNoData)
		}
		s := &model.PriceSeries{
			Symbol:    symbol,
			Source:    c.Fetcher.Name(),
			Rows:      rows,
			FetchedAt: time.Now(),
		}
		c.Cache.Set(key, s)
		c.Metrics.SetCacheEntries(c.Cache.Len())
		log.Debug().Str("symbol", symbol).Str("source", s.Source).Int("rows", len(rows)).
			Dur("elapsed", time.Since(start)).Msg("price history fetched")
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("collect %s: %w", symbol, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("collect %s: %w", symbol, res.Err)
		}
		if res.Shared {
			log.Debug().Str("symbol", symbol).Msg("shared in-flight fetch")
		}
		return res.Val.(*model.PriceSeries), nil
	}
}

// Normalize strips time-of-day from dates, sorts rows ascending and keeps
// the last row for any repeated date. The input slice is not modified.
func Normalize(rows []model.PriceRow) []model.PriceRow {
	out := make([]model.PriceRow, len(rows))
	for i, r := range rows {
		r.Date = calculator.DateOnly(r.Date)
		out[i] = r
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	deduped := out[:0]
	for _, r := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(r.Date) {
			deduped[n-1] = r
			continue
		}
		deduped = append(deduped, r)
	}
	return deduped
}

// Clip keeps rows dated within [from, to].
func Clip(rows []model.PriceRow, from, to time.Time) []model.PriceRow {
	out := rows[:0:0]
	for _, r := range rows {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}
