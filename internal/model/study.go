package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Metric names a windowed column that callers can request.
type Metric string

const (
	MetricCumulativeReturn Metric = "CM_Return"
	MetricAverageReturn    Metric = "AV_Return"
)

// ParseMetric maps a wire name onto a Metric.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCumulativeReturn, MetricAverageReturn:
		return Metric(s), nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// WindowParameters describes the event window around the date of interest.
type WindowParameters struct {
	DateOfInterest time.Time
	UpperWindow    int
	LowerWindow    int
	Metrics        []Metric
}

// Wants reports whether m was requested.
func (p WindowParameters) Wants(m Metric) bool {
	for _, v := range p.Metrics {
		if v == m {
			return true
		}
	}
	return false
}

// OptionalFloat is a column that is either absent from a row, or present
// with a value that may itself be null.
type OptionalFloat struct {
	Present bool
	Value   *float64
}

// Some returns a present column holding v (nil meaning null).
func Some(v *float64) OptionalFloat {
	return OptionalFloat{Present: true, Value: v}
}

// OutputRow is one row of the event-study table.
type OutputRow struct {
	RelativeDate     int
	Date             time.Time
	Return           *float64
	ReturnPercentage *float64
	CMReturn         OptionalFloat
	AVReturn         OptionalFloat
	Open             float64
	High             float64
	Low              float64
	Close            float64
	AdjustedClose    float64
	Volume           float64
}

type outputRowJSON struct {
	RelativeDate     int             `json:"RelativeDate"`
	Date             string          `json:"Date"`
	Return           *float64        `json:"Return"`
	ReturnPercentage *float64        `json:"Return_Percentage"`
	CMReturn         json.RawMessage `json:"CM_Return,omitempty"`
	AVReturn         json.RawMessage `json:"AV_Return,omitempty"`
	Open             float64         `json:"Open"`
	High             float64         `json:"High"`
	Low              float64         `json:"Low"`
	Close            float64         `json:"Close"`
	AdjustedClose    float64         `json:"AdjustedClose"`
	Volume           float64         `json:"Volume"`
}

var jsonNull = json.RawMessage("null")

func (o OptionalFloat) raw() (json.RawMessage, error) {
	if !o.Present {
		return nil, nil
	}
	if o.Value == nil || math.IsNaN(*o.Value) || math.IsInf(*o.Value, 0) {
		return jsonNull, nil
	}
	return json.Marshal(*o.Value)
}

// MarshalJSON writes the row with optional columns omitted when absent.
func (r OutputRow) MarshalJSON() ([]byte, error) {
	cm, err := r.CMReturn.raw()
	if err != nil {
		return nil, err
	}
	av, err := r.AVReturn.raw()
	if err != nil {
		return nil, err
	}
	return json.Marshal(outputRowJSON{
		RelativeDate:     r.RelativeDate,
		Date:             r.Date.Format(DateLayout),
		Return:           finite(r.Return),
		ReturnPercentage: finite(r.ReturnPercentage),
		CMReturn:         cm,
		AVReturn:         av,
		Open:             r.Open,
		High:             r.High,
		Low:              r.Low,
		Close:            r.Close,
		AdjustedClose:    r.AdjustedClose,
		Volume:           r.Volume,
	})
}

// UnmarshalJSON restores a row; a key that is missing stays absent.
func (r *OutputRow) UnmarshalJSON(data []byte) error {
	var w outputRowJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d, err := time.Parse(DateLayout, w.Date)
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	cm, err := optionalFromRaw(w.CMReturn)
	if err != nil {
		return err
	}
	av, err := optionalFromRaw(w.AVReturn)
	if err != nil {
		return err
	}
	*r = OutputRow{
		RelativeDate:     w.RelativeDate,
		Date:             d,
		Return:           w.Return,
		ReturnPercentage: w.ReturnPercentage,
		CMReturn:         cm,
		AVReturn:         av,
		Open:             w.Open,
		High:             w.High,
		Low:              w.Low,
		Close:            w.Close,
		AdjustedClose:    w.AdjustedClose,
		Volume:           w.Volume,
	}
	return nil
}

func optionalFromRaw(raw json.RawMessage) (OptionalFloat, error) {
	if len(raw) == 0 {
		return OptionalFloat{}, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return Some(nil), nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return OptionalFloat{}, err
	}
	return Some(&v), nil
}

// JSON has no representation for NaN or ±Inf; those go out as null.
func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
