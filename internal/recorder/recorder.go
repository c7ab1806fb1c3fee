package recorder

import (
	"context"
	"time"

	"EventStudy/internal/model"
)

// Origin values for StudyRecord.
const (
	OriginFetched  = "fetched"  // history pulled from a market-data source
	OriginSupplied = "supplied" // history posted by the caller
)

// StudyRecord describes one computed (or failed) event study.
type StudyRecord struct {
	ID             string
	Timestamp      time.Time
	Symbol         string
	Origin         string
	Source         string
	DateOfInterest time.Time
	UpperWindow    int
	LowerWindow    int
	Metrics        []model.Metric
	InputRows      int
	OutputRows     int
	Duration       time.Duration
	Error          string
}

// Recorder keeps a log of studies for later analysis. It never feeds a
// calculation.
type Recorder interface {
	RecordStudy(ctx context.Context, rec *StudyRecord) error
	Recent(ctx context.Context, limit int) ([]StudyRecord, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}
