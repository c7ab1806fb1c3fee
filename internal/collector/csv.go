package collector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"EventStudy/internal/model"
)

// ErrBadCSV is returned for price tables that cannot be parsed.
var ErrBadCSV = errors.New("invalid price table")

var csvColumns = map[string]string{
	"date":          "date",
	"open":          "open",
	"high":          "high",
	"low":           "low",
	"close":         "close",
	"adjclose":      "adjclose",
	"adjustedclose": "adjclose",
	"volume":        "volume",
}

func columnKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
	return csvColumns[h]
}

// ParseCSV reads a price table with a header row. Column names are matched
// loosely, so "DATE,ADJCLOSE", "Date,Adj Close" and "date,adjusted_close"
// all work. DATE and ADJCLOSE are required; Yahoo's "null" rows are skipped.
func ParseCSV(r io.Reader) ([]model.PriceRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrBadCSV, err)
	}
	idx := make(map[string]int)
	for i, h := range header {
		if k := columnKey(strings.TrimPrefix(h, "\ufeff")); k != "" {
			idx[k] = i
		}
	}
	if _, ok := idx["date"]; !ok {
		return nil, fmt.Errorf("%w: missing DATE column", ErrBadCSV)
	}
	if _, ok := idx["adjclose"]; !ok {
		return nil, fmt.Errorf("%w: missing ADJCLOSE column", ErrBadCSV)
	}

	var rows []model.PriceRow
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadCSV, line, err)
		}
		if isNullRecord(rec) {
			continue
		}

		field := func(k string) string {
			i, ok := idx[k]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		d, err := time.Parse(model.DateLayout, field("date"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: date %q", ErrBadCSV, line, field("date"))
		}
		row := model.PriceRow{Date: d}
		targets := []struct {
			key string
			dst *float64
		}{
			{"open", &row.Open},
			{"high", &row.High},
			{"low", &row.Low},
			{"close", &row.Close},
			{"adjclose", &row.AdjClose},
			{"volume", &row.Volume},
		}
		for _, t := range targets {
			s := field(t.key)
			if s == "" {
				if t.key == "adjclose" {
					return nil, fmt.Errorf("%w: line %d: empty ADJCLOSE", ErrBadCSV, line)
				}
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s %q", ErrBadCSV, line, t.key, s)
			}
			*t.dst = v
		}
		rows = append(rows, row)
	}
	if rows == nil {
		rows = []model.PriceRow{}
	}
	return rows, nil
}

func isNullRecord(rec []string) bool {
	for i, f := range rec {
		if i == 0 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(f), "null") {
			return true
		}
	}
	return false
}
