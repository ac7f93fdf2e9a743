// Package http serves the JSON API: transactions, dashboard and reports,
// report export and the notification feed.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/notify"
	"fintrack/internal/report"
	"fintrack/internal/sheets"
)

// TransactionService is the application layer the handlers drive.
type TransactionService interface {
	List(ctx context.Context, userID string, kind core.Kind, opts report.ListOptions) ([]core.Transaction, error)
	Get(ctx context.Context, userID string, kind core.Kind, id string) (core.Transaction, error)
	Create(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error)
	Update(ctx context.Context, userID string, kind core.Kind, id string, p core.Patch) error
	Delete(ctx context.Context, userID string, kind core.Kind, id string) error
	Dashboard(ctx context.Context, userID string) (report.Dashboard, error)
	Report(ctx context.Context, userID string, period report.PeriodName) (report.Report, error)
	Categories(kind core.Kind) ([]string, error)
}

// Config holds the server's tunables.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	// TrustedProxies replaces the default private-network proxy list when set.
	TrustedProxies []string
	// StreamHeartbeat is the idle interval between keep-alive comments on the
	// notification stream.
	StreamHeartbeat time.Duration
}

// Deps are the collaborators behind the API.
type Deps struct {
	Service       TransactionService
	Notifications notify.Store
	// Exporter may be nil, which disables report export.
	Exporter sheets.ReportExporter
	// Ping reports backend readiness; nil means always ready.
	Ping   func(ctx context.Context) error
	Logger *log.Logger
}

type Server struct {
	http.Server

	svc       TransactionService
	notes     notify.Store
	exporter  sheets.ReportExporter
	ping      func(ctx context.Context) error
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	heartbeat time.Duration
	startedAt time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware and returns a ready-to-run server.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector(logger)
	if len(cfg.TrustedProxies) > 0 {
		if err := detector.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return nil, err
		}
	}

	heartbeat := cfg.StreamHeartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}

	s := &Server{
		svc:       deps.Service,
		notes:     deps.Notifications,
		exporter:  deps.Exporter,
		ping:      deps.Ping,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(logger, detector.ExtractClientIP),
		heartbeat: heartbeat,
		startedAt: time.Now(),
	}

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/dashboard", s.handleDashboard)
	api.HandleFunc("GET /api/reports", s.handleReport)
	api.HandleFunc("POST /api/reports/export", s.handleExportReport)
	api.HandleFunc("GET /api/categories/{kind}", s.handleCategories)

	api.HandleFunc("GET /api/notifications", s.handleListNotifications)
	api.HandleFunc("POST /api/notifications", s.handleCreateNotification)
	api.HandleFunc("GET /api/notifications/stream", s.handleNotificationStream)
	api.HandleFunc("POST /api/notifications/read-all", s.handleMarkAllRead)
	api.HandleFunc("POST /api/notifications/{id}/read", s.handleMarkRead)

	api.HandleFunc("GET /api/{kind}", s.handleListTransactions)
	api.HandleFunc("POST /api/{kind}", s.handleCreateTransaction)
	api.HandleFunc("GET /api/{kind}/{id}", s.handleGetTransaction)
	api.HandleFunc("PUT /api/{kind}/{id}", s.handleUpdateTransaction)
	api.HandleFunc("DELETE /api/{kind}/{id}", s.handleDeleteTransaction)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/api/", s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(api))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	return s.tracer.Middleware(headers.Middleware(s.detector.Middleware(root)))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldPath, r.URL.Path)
	writeJSON(w, r, http.StatusTooManyRequests, errorBody{
		Error: "rate limit exceeded, retry later",
		Code:  "rate_limited",
	})
}

// Shutdown stops the limiter and drains the HTTP server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
