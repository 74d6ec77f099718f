package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"expvar"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rocknews/rocktag/internal/dictionary"
	"github.com/rocknews/rocktag/internal/models"
	"github.com/rocknews/rocktag/internal/pipeline"
	"github.com/rocknews/rocktag/internal/store"
)

// MaxBatchDocuments caps the documents accepted by one batch request.
const MaxBatchDocuments = 10000

// Server is an HTTP API server that exposes tagging and run lookups.
type Server struct {
	engine    *pipeline.Engine
	store     store.Store
	workers   int
	logger    *slog.Logger
	authToken string // empty = no auth required
}

// NewServer creates a new Server with the given dependencies.
func NewServer(engine *pipeline.Engine, st store.Store, workers int, logger *slog.Logger, authToken string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    engine,
		store:     st,
		workers:   workers,
		logger:    logger,
		authToken: authToken,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check, no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /v1/tag", s.auth(s.handleTag))
	mux.HandleFunc("POST /v1/tag/batch", s.auth(s.handleTagBatch))
	mux.HandleFunc("GET /v1/dictionary", s.auth(s.handleDictionary))
	mux.HandleFunc("GET /v1/dictionary/lookup", s.auth(s.handleLookup))
	mux.HandleFunc("GET /v1/runs", s.auth(s.handleListRuns))
	mux.HandleFunc("GET /v1/runs/{id}", s.auth(s.handleGetRun))
	mux.HandleFunc("GET /v1/runs/{id}/tags", s.auth(s.handleRunTags))
	mux.HandleFunc("GET /v1/runs/{id}/feedback", s.auth(s.handleRunFeedback))
	mux.Handle("GET /debug/vars", s.auth(expvar.Handler().ServeHTTP))

	return mux
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tagRequest is the body accepted by POST /v1/tag.
type tagRequest struct {
	Text string `json:"text"`
}

// tagResponse is returned by POST /v1/tag.
type tagResponse struct {
	NormalizedText string        `json:"normalized_text"`
	Tags           models.TagSet `json:"tags"`
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	normalized := s.engine.Normalizer.Text(req.Text)
	s.writeJSON(w, http.StatusOK, tagResponse{
		NormalizedText: normalized,
		Tags:           s.engine.Resolver.Resolve(normalized),
	})
}

// batchRequest is the body accepted by POST /v1/tag/batch.
type batchRequest struct {
	Documents []models.NewsRow `json:"documents"`
	Save      bool             `json:"save"`
}

// batchResponse is returned by POST /v1/tag/batch.
type batchResponse struct {
	Run      models.Run            `json:"run"`
	Saved    bool                  `json:"saved"`
	Tags     []models.DocumentTags `json:"tags"`
	Feedback []string              `json:"feedback"`
}

func (s *Server) handleTagBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 16<<20) // 16 MB limit
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Documents) == 0 {
		s.writeError(w, http.StatusBadRequest, "documents are required")
		return
	}
	if len(req.Documents) > MaxBatchDocuments {
		s.writeError(w, http.StatusRequestEntityTooLarge, "too many documents")
		return
	}

	res, err := s.engine.Run(r.Context(), req.Documents, s.workers)
	if err != nil {
		s.logger.Error("failed to tag batch", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to tag documents")
		return
	}

	saved := false
	if req.Save && s.store != nil {
		if err := s.store.SaveRun(r.Context(), res.Run, res.Tags, res.Feedback); err != nil {
			s.logger.Error("failed to save run", "run_id", res.Run.ID, "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to save run")
			return
		}
		saved = true
	}

	s.writeJSON(w, http.StatusOK, batchResponse{
		Run:      res.Run,
		Saved:    saved,
		Tags:     res.Tags,
		Feedback: res.Feedback,
	})
}

// dictionaryResponse is returned by GET /v1/dictionary.
type dictionaryResponse struct {
	Stats  dictionary.Stats  `json:"stats"`
	Report dictionary.Report `json:"report"`
}

func (s *Server) handleDictionary(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, dictionaryResponse{
		Stats:  s.engine.Resolver.Dictionary().Stats(),
		Report: s.engine.Report,
	})
}

// lookupResponse is returned by GET /v1/dictionary/lookup.
type lookupResponse struct {
	Key     string               `json:"key"`
	Matches []models.EntityMatch `json:"matches"`
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	key := s.engine.Normalizer.Key(name)
	matches := s.engine.Resolver.Dictionary().Lookup(key)
	if matches == nil {
		matches = []models.EntityMatch{}
	}
	s.writeJSON(w, http.StatusOK, lookupResponse{Key: key, Matches: matches})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.resolveRun(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunTags(w http.ResponseWriter, r *http.Request) {
	run, ok := s.resolveRun(w, r)
	if !ok {
		return
	}
	tags, err := s.store.Tags(r.Context(), run.ID)
	if err != nil {
		s.storeError(w, "tags", run.ID, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run_id": run.ID, "tags": tags})
}

// feedbackResponse is returned by GET /v1/runs/{id}/feedback.
type feedbackResponse struct {
	RunID string   `json:"run_id"`
	Names []string `json:"names"`
}

func (s *Server) handleRunFeedback(w http.ResponseWriter, r *http.Request) {
	run, ok := s.resolveRun(w, r)
	if !ok {
		return
	}
	names, err := s.store.Feedback(r.Context(), run.ID)
	if err != nil {
		s.storeError(w, "feedback", run.ID, err)
		return
	}
	s.writeJSON(w, http.StatusOK, feedbackResponse{RunID: run.ID, Names: names})
}

// --- helpers ---

// resolveRun loads the run named by the {id} path value; "latest" selects
// the newest run.
func (s *Server) resolveRun(w http.ResponseWriter, r *http.Request) (*models.Run, bool) {
	if !s.requireStore(w) {
		return nil, false
	}
	id := r.PathValue("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return nil, false
	}

	var (
		run *models.Run
		err error
	)
	if id == "latest" {
		run, err = s.store.LatestRun(r.Context())
	} else {
		run, err = s.store.GetRun(r.Context(), id)
	}
	if err != nil {
		s.storeError(w, "run", id, err)
		return nil, false
	}
	return run, true
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, what, id string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.logger.Error("failed to load "+what, "id", id, "error", err)
	s.writeError(w, http.StatusInternalServerError, "failed to load "+what)
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
