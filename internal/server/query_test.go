package server

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventStudy/internal/model"
)

func TestParseStudyPath(t *testing.T) {
	q, err := ParseStudyPath("/Upper_window/5/instrumentid/ABP.AX/List_of_Var/CM_Return/DateOfInterest/2012-12-10/Lower_window/3/List_of_Var/AV_Return")
	require.NoError(t, err)
	assert.Equal(t, StudyQuery{
		InstrumentID:   "ABP.AX",
		DateOfInterest: "2012-12-10",
		ListOfVar:      []string{"CM_Return", "AV_Return"},
		UpperWindow:    "5",
		LowerWindow:    "3",
	}, q)
}

func TestParseStudyPath_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want *APIError
	}{
		{"empty", "/", ErrMalformedRequest},
		{"odd segments", "/InstrumentID/AAPL/DateOfInterest", ErrMalformedRequest},
		{"unknown key", "/InstrumentID/AAPL/Ticker/AAPL", ErrMalformedRequest},
		{"repeated window", "/Upper_window/1/Upper_window/2", ErrMalformedRequest},
		{"repeated instrument", "/InstrumentID/AAPL/InstrumentID/MSFT", ErrInvalidInstrument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStudyPath(tt.path)
			assert.Equal(t, tt.want, err)
		})
	}
}

func TestQueryFromValues(t *testing.T) {
	v := url.Values{}
	v.Set("InstrumentID", "AAPL")
	v.Set("DateOfInterest", "2012-12-10")
	v.Add("List_of_Var", "CM_Return,AV_Return")
	v.Set("upper_window", "2")
	v.Set("Lower_window", "1")
	v.Set("ignored", "x")

	q := QueryFromValues(v)
	assert.Equal(t, "AAPL", q.InstrumentID)
	assert.Equal(t, []string{"CM_Return", "AV_Return"}, q.ListOfVar)
	assert.Equal(t, "2", q.UpperWindow)
	assert.Equal(t, "1", q.LowerWindow)
}

func validQuery() StudyQuery {
	return StudyQuery{
		InstrumentID:   "ABP.AX",
		DateOfInterest: "2012-12-10",
		ListOfVar:      []string{"CM_Return"},
		UpperWindow:    "5",
		LowerWindow:    "3",
	}
}

func TestValidator_Request(t *testing.T) {
	v := NewValidator()

	q := validQuery()
	q.InstrumentID = "abp.ax"
	q.ListOfVar = []string{"AV_Return", "CM_Return", "AV_Return"}
	req, err := v.Request(q)
	require.NoError(t, err)
	assert.Equal(t, "ABP.AX", req.Symbol)
	assert.Equal(t, "2012-12-10", req.Params.DateOfInterest.Format(model.DateLayout))
	assert.Equal(t, 5, req.Params.UpperWindow)
	assert.Equal(t, 3, req.Params.LowerWindow)
	assert.Equal(t, []model.Metric{model.MetricAverageReturn, model.MetricCumulativeReturn}, req.Params.Metrics)
}

func TestValidator_Messages(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StudyQuery)
		want   string
	}{
		{"hyphenated instrument", func(q *StudyQuery) { q.InstrumentID = "ABP-AX" }, MsgInvalidInstrument},
		{"several instruments", func(q *StudyQuery) { q.InstrumentID = "ABP.AX,AAPL" }, MsgInvalidInstrument},
		{"missing instrument", func(q *StudyQuery) { q.InstrumentID = "" }, MsgMalformedRequest},
		{"slashed date", func(q *StudyQuery) { q.DateOfInterest = "2012/12/10" }, MsgMalformedRequest},
		{"missing date", func(q *StudyQuery) { q.DateOfInterest = "" }, MsgMalformedRequest},
		{"unknown metric", func(q *StudyQuery) { q.ListOfVar = []string{"CM---AAAeturn"} }, MsgMalformedRequest},
		{"missing metrics", func(q *StudyQuery) { q.ListOfVar = nil }, MsgMalformedRequest},
		{"word upper window", func(q *StudyQuery) { q.UpperWindow = "five" }, MsgInvalidUpper},
		{"negative upper window", func(q *StudyQuery) { q.UpperWindow = "-5" }, MsgInvalidUpper},
		{"oversized upper window", func(q *StudyQuery) { q.UpperWindow = "5000" }, MsgInvalidUpper},
		{"missing upper window", func(q *StudyQuery) { q.UpperWindow = "" }, MsgMalformedRequest},
		{"word lower window", func(q *StudyQuery) { q.LowerWindow = "three" }, MsgInvalidLower},
		{"negative lower window", func(q *StudyQuery) { q.LowerWindow = "-3" }, MsgInvalidLower},
		{"fractional lower window", func(q *StudyQuery) { q.LowerWindow = "2.5" }, MsgInvalidLower},
	}
	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuery()
			tt.mutate(&q)
			_, err := v.Request(q)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestValidator_DottedDate(t *testing.T) {
	q := validQuery()
	q.DateOfInterest = "2019.12.10"
	req, err := NewValidator().Request(q)
	require.NoError(t, err)
	assert.Equal(t, "2019-12-10", req.Params.DateOfInterest.Format(model.DateLayout))
}

func TestValidator_ZeroWindows(t *testing.T) {
	q := validQuery()
	q.UpperWindow, q.LowerWindow = "0", "0"
	req, err := NewValidator().Request(q)
	require.NoError(t, err)
	assert.Zero(t, req.Params.UpperWindow)
	assert.Zero(t, req.Params.LowerWindow)
}
