package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/ragdex/internal/usecase/query"
)

const maxBodyBytes = 1 << 20

// Server serves the ragdex HTTP API.
type Server struct {
	ingest      Ingester
	query       Querier
	search      Retriever
	collections Collections
	health      HealthChecker
	defaultTopK int
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest Ingester,
	query Querier,
	search Retriever,
	collections Collections,
	health HealthChecker,
	defaultTopK int,
	logger *zap.Logger,
) *Server {
	if defaultTopK <= 0 {
		defaultTopK = 3
	}
	return &Server{
		ingest:      ingest,
		query:       query,
		search:      search,
		collections: collections,
		health:      health,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(jsonRecoverer(s.logger))
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/collections", func(r chi.Router) {
		r.Get("/", s.ListCollections)
		r.Route("/{collection}", func(r chi.Router) {
			r.Get("/", s.GetCollection)
			r.Delete("/", s.DeleteCollection)
			r.Post("/ingest", s.Ingest)
			r.Post("/query", s.Query)
			r.Post("/search", s.Search)
		})
	})
	return r
}

// Ingest handles POST /collections/{collection}/ingest.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "source is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.ingest.Ingest(ctx, ingestuc.Request{
		Source:       req.Source,
		Collection:   chi.URLParam(r, "collection"),
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
		Replace:      req.Replace,
	})
	setUsageHeaders(w, usage)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reportToResponse(report))
}

// Query handles POST /collections/{collection}/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ans, err := s.query.Query(ctx, queryuc.Request{
		Collection: chi.URLParam(r, "collection"),
		Query:      req.Query,
		TopK:       s.topK(req.TopK),
	})
	setUsageHeaders(w, usage)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answerToResponse(ans))
}

// Search handles POST /collections/{collection}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	hits, err := s.search.Retrieve(ctx, chi.URLParam(r, "collection"), req.Query, s.topK(req.TopK))
	setUsageHeaders(w, usage)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hitsToResponse(hits))
}

// ListCollections handles GET /collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.List(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items := make([]collectionResponse, len(cols))
	for i, c := range cols {
		items[i] = collectionToResponse(c)
	}
	writeJSON(w, http.StatusOK, collectionListResponse{Items: items, Count: len(items)})
}

// GetCollection handles GET /collections/{collection}.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	col, err := s.collections.Get(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionToResponse(col))
}

// DeleteCollection handles DELETE /collections/{collection}.
func (s *Server) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.collections.Delete(r.Context(), chi.URLParam(r, "collection")); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// topK applies the default when the request omits top_k. An explicit zero
// is passed through so validation rejects it.
func (s *Server) topK(v *int) int {
	if v == nil {
		return s.defaultTopK
	}
	return *v
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, codeBadRequest, "request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if usage.EmbeddingTokens > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if usage.GenerationTokens > 0 {
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(usage.GenerationTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
