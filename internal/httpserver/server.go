package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pola2025/report-polarad-sub001/internal/config"
	"github.com/pola2025/report-polarad-sub001/internal/database"
	"github.com/pola2025/report-polarad-sub001/internal/engine"
	"github.com/pola2025/report-polarad-sub001/internal/metrics"
	"github.com/pola2025/report-polarad-sub001/internal/middleware"
	"github.com/pola2025/report-polarad-sub001/internal/models"
	"github.com/pola2025/report-polarad-sub001/internal/notify"
	"github.com/pola2025/report-polarad-sub001/internal/report"
	"github.com/pola2025/report-polarad-sub001/internal/source"
	"github.com/pola2025/report-polarad-sub001/internal/storage"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	DB         *database.PostgresDB
	Redis      *database.RedisDB
	ClickHouse *database.ClickHouseDB
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Server wraps HTTP handlers around the report service and builder.
type Server struct {
	reportService *report.Service
	builder       *report.Builder
	recordSource  source.RecordSource
	logger        *zap.Logger
	config        *config.Config
	metrics       *metrics.Metrics
}

// NewServer constructs an http.Handler with all routes registered.
// Missing backends degrade: without PostgreSQL the in-memory store is
// used, without Redis there is no cache, without ClickHouse the record
// source is empty.
func NewServer(deps *Dependencies) http.Handler {
	var reportRepo storage.ReportRepo
	var commentRepo storage.CommentRepo
	if deps.DB != nil {
		reportRepo = storage.NewPostgresReportRepo(deps.DB.Pool)
		commentRepo = storage.NewPostgresCommentRepo(deps.DB.Pool)
	} else {
		reportRepo = storage.NewInMemoryReportRepo()
		commentRepo = storage.NewInMemoryCommentRepo()
	}

	var cache *storage.ReportCache
	if deps.Redis != nil {
		cache = storage.NewReportCache(deps.Redis.Client, deps.Config.Redis.CacheTTL, deps.Logger)
	}

	var recordSource source.RecordSource
	if deps.ClickHouse != nil {
		recordSource = source.NewClickHouseSource(deps.ClickHouse.Conn, deps.Logger)
	} else {
		recordSource = source.NewInMemorySource()
	}

	var sender notify.Sender = notify.NopSender{}
	if deps.Config.Notify.WebhookURL != "" {
		sender = notify.NewWebhookSender(deps.Config.Notify.WebhookURL, deps.Logger)
	}

	fx, err := engine.NewCurrencyConverter(deps.Config.FX.KRWPerUSD)
	if err != nil {
		// Config validation catches this before we get here.
		deps.Logger.Fatal("invalid FX configuration", zap.Error(err))
	}

	svc := report.NewService(reportRepo, commentRepo, cache, sender,
		deps.Config.Notify.Channel, deps.Metrics, deps.Logger)
	builder := report.NewBuilder(recordSource, fx, deps.Metrics, deps.Logger)

	s := &Server{
		reportService: svc,
		builder:       builder,
		recordSource:  recordSource,
		logger:        deps.Logger,
		config:        deps.Config,
		metrics:       deps.Metrics,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	if deps.Config.Metrics.Enabled {
		mux.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	mux.HandleFunc("/reports", s.handleReports)
	mux.HandleFunc("/reports/", s.handleReportSubtree)

	// Middleware chain, outermost first.
	var handler http.Handler = mux
	handler = middleware.NewAuthMiddleware(deps.Config.Auth, deps.Logger).Handler(handler)
	handler = middleware.NewRateLimitMiddleware(deps.Config.RateLimit, deps.Logger).Handler(handler)
	handler = middleware.NewLoggingMiddleware(deps.Logger).Handler(handler)
	handler = middleware.NewRecoveryMiddleware(deps.Logger).Handler(handler)
	return handler
}

// ---- Health ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- /reports ----

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateReport(w, r)
	case http.MethodGet:
		s.handleListReports(w, r)
	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type createReportRequest struct {
	ClientID    string `json:"client_id"`
	ReportType  string `json:"report_type"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	start, err := parseDate(req.PeriodStart)
	if err != nil {
		s.errorResponse(w, "invalid period_start", http.StatusBadRequest)
		return
	}
	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		s.errorResponse(w, "invalid period_end", http.StatusBadRequest)
		return
	}

	buildReq := report.BuildRequest{
		ClientID:    req.ClientID,
		ReportType:  models.ReportType(req.ReportType),
		PeriodStart: start,
		PeriodEnd:   end,
	}

	summary, err := s.builder.BuildSummary(r.Context(), buildReq)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rep, err := s.reportService.Create(r.Context(), report.CreateParams{
		ClientID:    req.ClientID,
		ReportType:  models.ReportType(req.ReportType),
		PeriodStart: start,
		PeriodEnd:   end,
		Summary:     summary,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, rep)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		s.errorResponse(w, "client_id is required", http.StatusBadRequest)
		return
	}

	reports, err := s.reportService.ListByClient(r.Context(), clientID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if reports == nil {
		reports = []*models.Report{}
	}
	s.jsonResponse(w, http.StatusOK, reports)
}

// ---- /reports/{id}[/...] ----

func (s *Server) handleReportSubtree(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/reports/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		s.errorResponse(w, "report id required", http.StatusBadRequest)
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleGetReport(w, r, id)
		return
	}

	switch parts[1] {
	case "publish":
		s.handleTransition(w, r, id, models.StatusPublished)
	case "archive":
		s.handleTransition(w, r, id, models.StatusArchived)
	case "insights":
		s.handleInsights(w, r, id)
	case "comment":
		s.handleComment(w, r, id)
	case "keywords":
		s.handleKeywords(w, r, id)
	default:
		s.errorResponse(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request, id string) {
	rep, err := s.reportService.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rep)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, id string, target models.ReportStatus) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rep *models.Report
	var err error
	switch target {
	case models.StatusPublished:
		rep, err = s.reportService.Publish(r.Context(), id)
	case models.StatusArchived:
		rep, err = s.reportService.Archive(r.Context(), id)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rep)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || len(body) == 0 || !json.Valid(body) {
		s.errorResponse(w, "invalid insights payload", http.StatusBadRequest)
		return
	}

	rep, err := s.reportService.AttachInsights(r.Context(), id, body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rep)
}

type commentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodPut:
		var req commentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		c, err := s.reportService.UpsertComment(r.Context(), id, req.Author, req.Content)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, c)

	case http.MethodGet:
		c, err := s.reportService.GetComment(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, c)

	case http.MethodDelete:
		if err := s.reportService.HideComment(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleKeywords serves the keyword rollup for a report's period, or a
// single keyword's daily trend when ?keyword= is given.
func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rep, err := s.reportService.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	records, err := s.recordSource.Fetch(r.Context(), rep.ClientID, models.ChannelNaver, rep.PeriodStart, rep.PeriodEnd)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if kw := r.URL.Query().Get("keyword"); kw != "" {
		trend := engine.KeywordTrend(records, kw)
		if trend == nil {
			trend = []engine.KeywordDay{}
		}
		s.jsonResponse(w, http.StatusOK, trend)
		return
	}

	summaries := engine.RollupKeywords(records)
	if summaries == nil {
		summaries = []engine.KeywordSummary{}
	}
	s.jsonResponse(w, http.StatusOK, summaries)
}

// ---- Helpers ----

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeError maps the error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.errorResponse(w, "not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrDuplicatePeriod):
		s.errorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, report.ErrInvalidTransition):
		s.errorResponse(w, err.Error(), http.StatusConflict)
	case report.IsValidation(err):
		s.errorResponse(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, source.ErrSourceUnavailable):
		s.errorResponse(w, "record source unavailable", http.StatusBadGateway)
	default:
		s.logger.Error("internal error", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
	}
}
