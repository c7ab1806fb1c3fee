package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"

	"EventStudy/internal/collector"
	"EventStudy/internal/model"
)

// SuppliedStudyRequest is the JSON body of POST /api/v1/studies.
type SuppliedStudyRequest struct {
	Parameters  StudyParameters `json:"Parameters"`
	PriceSeries []PriceRowJSON  `json:"PriceSeries"`
}

// StudyParameters mirrors the path keys. Windows may be numbers or strings,
// and List_of_Var an array or a comma-separated string.
type StudyParameters struct {
	InstrumentID   string     `json:"InstrumentID"`
	DateOfInterest string     `json:"DateOfInterest"`
	ListOfVar      flexList   `json:"List_of_Var"`
	UpperWindow    flexString `json:"Upper_window"`
	LowerWindow    flexString `json:"Lower_window"`
}

// PriceRowJSON is one input row.
type PriceRowJSON struct {
	Date     string   `json:"DATE"`
	Open     float64  `json:"OPEN"`
	High     float64  `json:"HIGH"`
	Low      float64  `json:"LOW"`
	Close    float64  `json:"CLOSE"`
	AdjClose *float64 `json:"ADJCLOSE"`
	Volume   float64  `json:"VOLUME"`
}

type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type flexList []string

func (f *flexList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != "" {
		*f = strings.Split(s, ",")
	}
	return nil
}

func (p StudyParameters) query() StudyQuery {
	return StudyQuery{
		InstrumentID:   p.InstrumentID,
		DateOfInterest: p.DateOfInterest,
		ListOfVar:      p.ListOfVar,
		UpperWindow:    string(p.UpperWindow),
		LowerWindow:    string(p.LowerWindow),
	}
}

func (p PriceRowJSON) row() (model.PriceRow, error) {
	d, err := time.Parse(model.DateLayout, p.Date)
	if err != nil {
		return model.PriceRow{}, fmt.Errorf("DATE %q: %w", p.Date, err)
	}
	if p.AdjClose == nil {
		return model.PriceRow{}, fmt.Errorf("row %s has no ADJCLOSE", p.Date)
	}
	return model.PriceRow{
		Date:     d,
		Open:     p.Open,
		High:     p.High,
		Low:      p.Low,
		Close:    p.Close,
		AdjClose: *p.AdjClose,
		Volume:   p.Volume,
	}, nil
}

// handleSuppliedStudy computes a study over a caller-supplied history,
// either a JSON SuppliedStudyRequest or a text/csv table with parameters in
// the query string.
func (s *Server) handleSuppliedStudy(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var (
		q       StudyQuery
		rows    []model.PriceRow
		rowsErr error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		q = QueryFromValues(r.URL.Query())
		rows, rowsErr = collector.ParseCSV(r.Body)
	} else {
		var body SuppliedStudyRequest
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			s.fail(w, r, fmt.Errorf("decode body: %v: %w", err, ErrInvalidSeries))
			return
		}
		q = body.Parameters.query()
		rows = make([]model.PriceRow, 0, len(body.PriceSeries))
		for _, pr := range body.PriceSeries {
			row, err := pr.row()
			if err != nil {
				rowsErr = fmt.Errorf("%v: %w", err, ErrInvalidSeries)
				break
			}
			rows = append(rows, row)
		}
	}

	req, err := s.validate.Request(q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if rowsErr != nil {
		s.fail(w, r, rowsErr)
		return
	}
	res, err := s.Study.RunSeries(r.Context(), req, rows)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.Render(w, r, newStudyResponse(res))
}
