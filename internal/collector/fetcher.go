package collector

import (
	"context"
	"errors"
	"time"

	"EventStudy/internal/model"
)

// ErrNoData is returned when a source has no rows for the requested range.
var ErrNoData = errors.New("no price data available")

// Fetcher defines the interface for fetching daily price history.
// from and to are calendar dates, both inclusive.
type Fetcher interface {
	FetchDailyHistory(ctx context.Context, symbol string, from, to time.Time) ([]model.PriceRow, error)
	Name() string
}
