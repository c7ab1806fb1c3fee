package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"EventStudy/internal/calculator"
	"EventStudy/internal/collector"
	"EventStudy/internal/study"
)

// Error messages returned in the Errors field.
const (
	MsgMalformedRequest  = "Request URL is Not in a Valid Format"
	MsgInvalidInstrument = "InstrumentID Value is Invalid"
	MsgInvalidUpper      = "Upper Window Value is Invalid"
	MsgInvalidLower      = "Lower Window Value is Invalid"
	MsgNoStockData       = "InstrumentID Value is Invalid, or there is No Stock Data Available for the Specified Window of Days"
	MsgInvalidSeries     = "Price Series is Not in a Valid Format"
	MsgSourceUnavailable = "Market Data Source is Unavailable"
	MsgMethodNotAllowed  = "Method Not Allowed"
	MsgInternal          = "Internal Server Error"
)

// APIError is the JSON error payload.
type APIError struct {
	Status  int    `json:"-"`
	Field   string `json:"-"` // metrics label for validation failures
	Message string `json:"Errors"`
}

func (e *APIError) Error() string { return e.Message }

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Status)
	return nil
}

var (
	ErrMalformedRequest  = &APIError{Status: http.StatusBadRequest, Field: "request", Message: MsgMalformedRequest}
	ErrInvalidInstrument = &APIError{Status: http.StatusBadRequest, Field: "InstrumentID", Message: MsgInvalidInstrument}
	ErrInvalidUpper      = &APIError{Status: http.StatusBadRequest, Field: "Upper_window", Message: MsgInvalidUpper}
	ErrInvalidLower      = &APIError{Status: http.StatusBadRequest, Field: "Lower_window", Message: MsgInvalidLower}
	ErrInvalidSeries     = &APIError{Status: http.StatusBadRequest, Field: "PriceSeries", Message: MsgInvalidSeries}
	ErrNoStockData       = &APIError{Status: http.StatusNotFound, Message: MsgNoStockData}
	ErrSourceUnavailable = &APIError{Status: http.StatusBadGateway, Message: MsgSourceUnavailable}
	ErrMethodNotAllowed  = &APIError{Status: http.StatusMethodNotAllowed, Message: MsgMethodNotAllowed}
	ErrInternal          = &APIError{Status: http.StatusInternalServerError, Message: MsgInternal}
)

// errorFor maps an error from any layer onto its API payload.
func errorFor(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, collector.ErrNoData):
		return ErrNoStockData
	case errors.Is(err, collector.ErrBadCSV):
		return ErrInvalidSeries
	case errors.Is(err, calculator.ErrInvalidWindow):
		return ErrMalformedRequest
	case errors.Is(err, study.ErrSourceUnavailable):
		return ErrSourceUnavailable
	default:
		return ErrInternal
	}
}
