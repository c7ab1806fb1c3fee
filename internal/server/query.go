package server

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"EventStudy/internal/model"
	"EventStudy/internal/study"
)

// Path and query-string keys.
const (
	KeyInstrument = "InstrumentID"
	KeyDate       = "DateOfInterest"
	KeyVars       = "List_of_Var"
	KeyUpper      = "Upper_window"
	KeyLower      = "Lower_window"
)

// MaxWindow bounds either window, in trading days.
const MaxWindow = 1000

var (
	instrumentPattern = regexp.MustCompile(`^[A-Za-z0-9^]{1,10}(\.[A-Za-z]{1,4})?$`)
	windowPattern     = regexp.MustCompile(`^[0-9]{1,6}$`)

	// The dotted form is accepted for compatibility with older clients.
	dateLayouts = []string{model.DateLayout, "2006.01.02"}
)

// StudyQuery holds the raw parameters of a study request before validation.
type StudyQuery struct {
	InstrumentID   string   `validate:"required,instrument"`
	DateOfInterest string   `validate:"required,eventdate"`
	ListOfVar      []string `validate:"required,min=1,dive,metric"`
	UpperWindow    string   `validate:"required,window"`
	LowerWindow    string   `validate:"required,window"`
}

// ParseStudyPath reads a path of alternating key/value segments, e.g.
// /InstrumentID/AAPL/DateOfInterest/2012-12-10/List_of_Var/CM_Return/Upper_window/5/Lower_window/3.
// Keys may come in any order and match case-insensitively. List_of_Var takes
// a comma-separated list and may repeat.
func ParseStudyPath(path string) (StudyQuery, error) {
	var q StudyQuery
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return q, ErrMalformedRequest
	}
	segs := strings.Split(trimmed, "/")
	if len(segs)%2 != 0 {
		return q, ErrMalformedRequest
	}

	seen := make(map[string]bool, 5)
	for i := 0; i < len(segs); i += 2 {
		key, val := canonicalKey(segs[i]), segs[i+1]
		if key == "" {
			return q, ErrMalformedRequest
		}
		if key == KeyVars {
			q.ListOfVar = append(q.ListOfVar, strings.Split(val, ",")...)
			continue
		}
		if seen[key] {
			if key == KeyInstrument {
				return q, ErrInvalidInstrument
			}
			return q, ErrMalformedRequest
		}
		seen[key] = true
		q.set(key, val)
	}
	return q, nil
}

// QueryFromValues reads the same keys from a query string.
func QueryFromValues(v url.Values) StudyQuery {
	var q StudyQuery
	for k, vals := range v {
		key := canonicalKey(k)
		if key == "" || len(vals) == 0 {
			continue
		}
		if key == KeyVars {
			for _, s := range vals {
				q.ListOfVar = append(q.ListOfVar, strings.Split(s, ",")...)
			}
			continue
		}
		q.set(key, strings.Join(vals, ","))
	}
	return q
}

func canonicalKey(k string) string {
	for _, known := range []string{KeyInstrument, KeyDate, KeyVars, KeyUpper, KeyLower} {
		if strings.EqualFold(k, known) {
			return known
		}
	}
	return ""
}

func (q *StudyQuery) set(key, val string) {
	switch key {
	case KeyInstrument:
		q.InstrumentID = val
	case KeyDate:
		q.DateOfInterest = val
	case KeyUpper:
		q.UpperWindow = val
	case KeyLower:
		q.LowerWindow = val
	}
}

// Validator performs the syntactic checks on a StudyQuery.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator with the study rules registered.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterValidation("instrument", isInstrument)
	v.RegisterValidation("eventdate", isEventDate)
	v.RegisterValidation("metric", isMetric)
	v.RegisterValidation("window", isWindow)
	return &Validator{v: v}
}

// Request validates q and converts it into a study request. The returned
// error is always an *APIError.
func (v *Validator) Request(q StudyQuery) (study.Request, error) {
	if err := v.v.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return study.Request{}, fieldError(verrs[0])
		}
		return study.Request{}, ErrMalformedRequest
	}

	doi, _ := parseEventDate(q.DateOfInterest)
	upper, _ := strconv.Atoi(q.UpperWindow)
	lower, _ := strconv.Atoi(q.LowerWindow)

	metrics := make([]model.Metric, 0, len(q.ListOfVar))
	for _, s := range q.ListOfVar {
		m, _ := model.ParseMetric(s)
		if !containsMetric(metrics, m) {
			metrics = append(metrics, m)
		}
	}

	return study.Request{
		Symbol: strings.ToUpper(q.InstrumentID),
		Params: model.WindowParameters{
			DateOfInterest: doi,
			UpperWindow:    upper,
			LowerWindow:    lower,
			Metrics:        metrics,
		},
	}, nil
}

func fieldError(fe validator.FieldError) *APIError {
	switch fe.Tag() {
	case "required", "min":
		return ErrMalformedRequest
	}
	switch fe.StructField() {
	case "InstrumentID":
		return ErrInvalidInstrument
	case "UpperWindow":
		return ErrInvalidUpper
	case "LowerWindow":
		return ErrInvalidLower
	}
	return ErrMalformedRequest
}

func isInstrument(fl validator.FieldLevel) bool {
	return instrumentPattern.MatchString(fl.Field().String())
}

func isEventDate(fl validator.FieldLevel) bool {
	_, err := parseEventDate(fl.Field().String())
	return err == nil
}

func isMetric(fl validator.FieldLevel) bool {
	_, err := model.ParseMetric(fl.Field().String())
	return err == nil
}

func isWindow(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !windowPattern.MatchString(s) {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n <= MaxWindow
}

func parseEventDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func containsMetric(ms []model.Metric, m model.Metric) bool {
	for _, v := range ms {
		if v == m {
			return true
		}
	}
	return false
}
