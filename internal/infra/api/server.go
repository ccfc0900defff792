package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/application"
	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/infra/logging"
	"ai-video-orchestrator/internal/infra/worker"
)

// Facade is the application surface the HTTP layer drives.
type Facade interface {
	StartGeneration(ctx context.Context, req model.GenerationRequest) (application.JobRecord, error)
	StartUpload(ctx context.Context, job *model.UploadJob) (application.JobRecord, error)
	Job(id string) (application.JobRecord, error)
	Schedule(ctx context.Context, item *model.ScheduledUploadItem) (*model.ScheduledUploadItem, error)
	Schedules(ctx context.Context) ([]*model.ScheduledUploadItem, error)
	ScheduleCount(ctx context.Context) (int, error)
	ScheduleHistory() []*model.ScheduledUploadItem
	ScheduledItem(ctx context.Context, id string) (*model.ScheduledUploadItem, error)
	Account() application.AccountStatus
	RevokeAccount(ctx context.Context) error
}

var _ Facade = (*application.Orchestrator)(nil)

// Options configures the HTTP layer. Limiter may be nil.
type Options struct {
	RequestTimeout time.Duration
	Limiter        Allower
	SubmitLimit    int
	SubmitWindow   time.Duration
}

type Server struct {
	app    Facade
	issuer *TokenIssuer
	opts   Options
	log    *zerolog.Logger
}

func NewServer(app Facade, issuer *TokenIssuer, opts Options, logger *zerolog.Logger) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.SubmitWindow <= 0 {
		opts.SubmitWindow = time.Minute
	}
	l := logger.With().Str("component", "api").Logger()
	return &Server{app: app, issuer: issuer, opts: opts, log: &l}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), AccessLog(s.log), Recover(s.log), Deadline(s.opts.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(s.issuer))

		r.With(s.limit("generations")).Post("/generations", s.handleStartGeneration)
		r.With(s.limit("uploads")).Post("/uploads", s.handleStartUpload)
		r.Get("/jobs/{id}", s.handleGetJob)

		r.Route("/schedules", func(r chi.Router) {
			r.With(s.limit("schedules")).Post("/", s.handleSchedule)
			r.Get("/", s.handleListSchedules)
			r.Get("/history", s.handleScheduleHistory)
			r.Get("/{id}", s.handleGetSchedule)
		})

		r.Get("/account", s.handleAccount)
		r.Post("/account/revoke", s.handleRevoke)
	})
	return r
}

func (s *Server) limit(route string) func(http.Handler) http.Handler {
	return RateLimit(s.opts.Limiter, route, s.opts.SubmitLimit, s.opts.SubmitWindow, s.log)
}

func (s *Server) handleStartGeneration(w http.ResponseWriter, r *http.Request) {
	var req model.GenerationRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := s.app.StartGeneration(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, rec)
}

type uploadRequest struct {
	FilePath    string   `json:"file_path"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Visibility  string   `json:"visibility"`
}

func (s *Server) handleStartUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if !decode(w, r, &req) {
		return
	}
	job := &model.UploadJob{
		SourcePath: req.FilePath,
		Metadata: model.UploadMetadata{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			Visibility:  req.Visibility,
		},
	}
	rec, err := s.app.StartUpload(r.Context(), job)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, rec)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	rec, err := s.app.Job(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type editsRequest struct {
	TrimStartSeconds float64 `json:"trim_start_seconds"`
	TrimEndSeconds   float64 `json:"trim_end_seconds"`
	Mute             bool    `json:"mute"`
	Scale            string  `json:"scale"`
}

type scheduleRequest struct {
	FilePath      string        `json:"file_path"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Tags          []string      `json:"tags"`
	Visibility    string        `json:"visibility"`
	ScheduledTime time.Time     `json:"scheduled_time"`
	Edits         *editsRequest `json:"edits"`
}

func (req scheduleRequest) item() *model.ScheduledUploadItem {
	it := &model.ScheduledUploadItem{
		FilePath:      req.FilePath,
		Title:         req.Title,
		Description:   req.Description,
		Tags:          strings.Join(req.Tags, ","),
		Visibility:    req.Visibility,
		ScheduledTime: req.ScheduledTime,
	}
	if e := req.Edits; e != nil {
		it.Edits = model.EditInstructions{
			TrimStart: time.Duration(e.TrimStartSeconds * float64(time.Second)),
			TrimEnd:   time.Duration(e.TrimEndSeconds * float64(time.Second)),
			Mute:      e.Mute,
			Scale:     e.Scale,
		}
	}
	return it
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !decode(w, r, &req) {
		return
	}
	it, err := s.app.Schedule(r.Context(), req.item())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.Schedules(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	n, err := s.app.ScheduleCount(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if items == nil {
		items = []*model.ScheduledUploadItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": n})
}

func (s *Server) handleScheduleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.app.ScheduleHistory()})
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	it, err := s.app.ScheduledItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Account())
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := s.app.RevokeAccount(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Account())
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func statusFor(err error) (int, string) {
	if errors.Is(err, worker.ErrQueueFull) || errors.Is(err, worker.ErrPoolStopped) {
		return http.StatusServiceUnavailable, "busy"
	}
	kind := domain.ErrorKind(err)
	switch kind {
	case "validation":
		return http.StatusBadRequest, kind
	case "auth":
		return http.StatusUnauthorized, kind
	case "not_found":
		return http.StatusNotFound, kind
	default:
		return http.StatusInternalServerError, kind
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := statusFor(err)
	if code >= http.StatusInternalServerError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("kind", kind).Msg("request failed")
	}
	writeJSON(w, code, errorBody{Error: err.Error(), Kind: kind})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error(), Kind: "validation"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
