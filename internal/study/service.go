// Package study runs event studies: it gathers a price history, hands it to
// the calculator and records the outcome.
package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"EventStudy/internal/calculator"
	"EventStudy/internal/collector"
	"EventStudy/internal/model"
	"EventStudy/internal/observability"
	"EventStudy/internal/recorder"
)

// ErrSourceUnavailable wraps failures of the market-data source other than
// an empty result.
var ErrSourceUnavailable = errors.New("market data source unavailable")

const recordTimeout = 5 * time.Second

// Request asks for a study of one instrument.
type Request struct {
	Symbol string
	Params model.WindowParameters
}

// Result is a computed study.
type Result struct {
	Symbol string
	Params model.WindowParameters
	Source string
	Rows   []model.OutputRow
}

// Service coordinates collection, calculation and recording.
type Service struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Metrics   *observability.Metrics
}

// NewService creates a new Service. rec may be nil.
func NewService(col *collector.Collector, rec recorder.Recorder, m *observability.Metrics) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{Collector: col, Recorder: rec, Metrics: m}
}

// Run fetches the history of req.Symbol around the date of interest and
// computes the study table.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	rec := newRecord(req, recorder.OriginFetched)

	series, err := s.Collector.Collect(ctx, req.Symbol, req.Params)
	if err != nil {
		if !errors.Is(err, collector.ErrNoData) {
			err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		s.finish(ctx, rec, start, 0, nil, err)
		return nil, err
	}
	rec.Source = series.Source

	res, err := s.compute(req, series.Rows, series.Source)
	s.finish(ctx, rec, start, len(series.Rows), res, err)
	return res, err
}

// RunSeries computes a study over a caller-supplied history. Rows are
// normalised first, so they may arrive unordered.
func (s *Service) RunSeries(ctx context.Context, req Request, rows []model.PriceRow) (*Result, error) {
	start := time.Now()
	rec := newRecord(req, recorder.OriginSupplied)
	rec.Source = recorder.OriginSupplied

	if len(rows) == 0 {
		err := fmt.Errorf("supplied series for %s: %w", req.Symbol, collector.ErrNoData)
		s.finish(ctx, rec, start, 0, nil, err)
		return nil, err
	}

	res, err := s.compute(req, collector.Normalize(rows), recorder.OriginSupplied)
	s.finish(ctx, rec, start, len(rows), res, err)
	return res, err
}

func (s *Service) compute(req Request, rows []model.PriceRow, source string) (*Result, error) {
	out, err := calculator.Calculate(rows, req.Params)
	if err != nil {
		return nil, fmt.Errorf("calculate %s: %w", req.Symbol, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s has no rows inside the window: %w", req.Symbol, collector.ErrNoData)
	}
	return &Result{
		Symbol: req.Symbol,
		Params: req.Params,
		Source: source,
		Rows:   out,
	}, nil
}

func newRecord(req Request, origin string) *recorder.StudyRecord {
	return &recorder.StudyRecord{
		Symbol:         req.Symbol,
		Origin:         origin,
		DateOfInterest: req.Params.DateOfInterest,
		UpperWindow:    req.Params.UpperWindow,
		LowerWindow:    req.Params.LowerWindow,
		Metrics:        req.Params.Metrics,
	}
}

// finish records the outcome. A recorder failure is logged and otherwise
// ignored.
func (s *Service) finish(ctx context.Context, rec *recorder.StudyRecord, start time.Time, inputRows int, res *Result, err error) {
	rec.Duration = time.Since(start)
	rec.InputRows = inputRows
	if res != nil {
		rec.OutputRows = len(res.Rows)
	}
	if err != nil {
		rec.Error = err.Error()
		log.Warn().Err(err).Str("symbol", rec.Symbol).Str("origin", rec.Origin).Msg("study failed")
	} else {
		s.Metrics.ObserveStudy(rec.Origin, rec.OutputRows)
		log.Info().Str("symbol", rec.Symbol).Str("origin", rec.Origin).
			Str("doi", rec.DateOfInterest.Format(model.DateLayout)).
			Int("rows", rec.OutputRows).Dur("elapsed", rec.Duration).Msg("study computed")
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if rerr := s.Recorder.RecordStudy(wctx, rec); rerr != nil {
		log.Error().Err(rerr).Str("symbol", rec.Symbol).Msg("record study")
	}
}
