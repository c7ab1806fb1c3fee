// Package server exposes event studies over HTTP.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/phuslu/log"

	"EventStudy/internal/model"
	"EventStudy/internal/observability"
	"EventStudy/internal/study"
)

const maxBodyBytes = 10 << 20

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	Study    *study.Service
	Metrics  *observability.Metrics
	validate *Validator
}

// New creates a new Server.
func New(svc *study.Service, m *observability.Metrics) *Server {
	return &Server{Study: svc, Metrics: m, validate: NewValidator()}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// Set before any sub-router is mounted so /api/v1 inherits them.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, ErrMalformedRequest)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, ErrMethodNotAllowed)
	})

	r.Get("/healthz", s.handleHealth)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/studies", s.handleSuppliedStudy)
		r.Get("/studies/recent", s.handleRecent)
	})

	// Everything else is a path-encoded study query.
	r.Get("/*", s.handlePathStudy)
	return r
}

// StudyResponse is the body of a successful study.
type StudyResponse struct {
	InstrumentID   string            `json:"InstrumentID"`
	DateOfInterest string            `json:"DateOfInterest"`
	UpperWindow    int               `json:"Upper_window"`
	LowerWindow    int               `json:"Lower_window"`
	ListOfVar      []string          `json:"List_of_Var"`
	Data           []model.OutputRow `json:"Data"`
}

// Render implements render.Renderer.
func (StudyResponse) Render(w http.ResponseWriter, r *http.Request) error { return nil }

func newStudyResponse(res *study.Result) StudyResponse {
	vars := make([]string, len(res.Params.Metrics))
	for i, m := range res.Params.Metrics {
		vars[i] = string(m)
	}
	return StudyResponse{
		InstrumentID:   res.Symbol,
		DateOfInterest: res.Params.DateOfInterest.Format(model.DateLayout),
		UpperWindow:    res.Params.UpperWindow,
		LowerWindow:    res.Params.LowerWindow,
		ListOfVar:      vars,
		Data:           res.Rows,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handlePathStudy(w http.ResponseWriter, r *http.Request) {
	q, err := ParseStudyPath(r.URL.Path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := s.validate.Request(q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.Study.Run(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.Render(w, r, newStudyResponse(res))
}

// studyRecordJSON is one entry of /api/v1/studies/recent.
type studyRecordJSON struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Symbol         string    `json:"symbol"`
	Origin         string    `json:"origin"`
	Source         string    `json:"source"`
	DateOfInterest string    `json:"date_of_interest"`
	UpperWindow    int       `json:"upper_window"`
	LowerWindow    int       `json:"lower_window"`
	Metrics        []string  `json:"metrics"`
	OutputRows     int       `json:"output_rows"`
	DurationMS     float64   `json:"duration_ms"`
	Error          string    `json:"error,omitempty"`
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			s.fail(w, r, ErrMalformedRequest)
			return
		}
		limit = n
	}

	recs, err := s.Study.Recorder.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]studyRecordJSON, len(recs))
	for i, rec := range recs {
		metrics := make([]string, len(rec.Metrics))
		for j, m := range rec.Metrics {
			metrics[j] = string(m)
		}
		out[i] = studyRecordJSON{
			ID:             rec.ID,
			Timestamp:      rec.Timestamp.UTC(),
			Symbol:         rec.Symbol,
			Origin:         rec.Origin,
			Source:         rec.Source,
			DateOfInterest: rec.DateOfInterest.Format(model.DateLayout),
			UpperWindow:    rec.UpperWindow,
			LowerWindow:    rec.LowerWindow,
			Metrics:        metrics,
			OutputRows:     rec.OutputRows,
			DurationMS:     float64(rec.Duration) / float64(time.Millisecond),
			Error:          rec.Error,
		}
	}
	render.JSON(w, r, out)
}

// fail writes err as an Errors payload.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := errorFor(err)
	reqID := middleware.GetReqID(r.Context())
	if apiErr.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Int("status", apiErr.Status).Msg("request rejected")
		if apiErr.Field != "" {
			s.Metrics.ObserveValidationFailure(apiErr.Field)
		}
	}
	render.Render(w, r, apiErr)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.Metrics.ObserveRequest(route, status, elapsed)

		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Msg("request completed")
	})
}
