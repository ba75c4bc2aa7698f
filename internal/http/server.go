// Package http serves the JSON API over the payment tracker.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pagotrack/internal/log"
	"pagotrack/internal/middleware/ratelimit"
	"pagotrack/internal/middleware/security"
	"pagotrack/internal/middleware/trace"
	"pagotrack/internal/ports"
	"pagotrack/internal/report"
	"pagotrack/internal/schedule"
	"pagotrack/internal/services"
)

// maxReceiptBytes bounds uploaded receipt images.
const maxReceiptBytes = 10 << 20

// Deps are the collaborators the server is built from. Extractor and
// Sheets may be nil.
type Deps struct {
	State     *services.StateStore
	Tracker   *services.Tracker
	Reports   *services.ReportService
	Extractor ports.Extractor
	// Sheets, when set, is offered as the "sheets" report format.
	Sheets ports.ReportRenderer
	// Ping checks the storage backend for /readyz.
	Ping        func(context.Context) error
	TrendWindow int
	// TrustedProxies lists CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
	Logger         *log.Logger
}

type Server struct {
	http.Server

	state       *services.StateStore
	tracker     *services.Tracker
	reports     *services.ReportService
	extractor   ports.Extractor
	renderers   map[string]ports.ReportRenderer
	ping        func(context.Context) error
	trendWindow int
	logger      *log.Logger

	rateLimiter     *ratelimit.Limiter
	detector        *security.Detector
	traceMiddleware *trace.Middleware
	started         time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	window := deps.TrendWindow
	if window < 1 {
		window = schedule.DefaultTrendWindow
	}

	renderers := map[string]ports.ReportRenderer{
		"xlsx": report.XLSX{},
		"text": report.Terminal{},
	}
	if deps.Sheets != nil {
		renderers["sheets"] = deps.Sheets
	}

	s := &Server{
		state:       deps.State,
		tracker:     deps.Tracker,
		reports:     deps.Reports,
		extractor:   deps.Extractor,
		renderers:   renderers,
		ping:        deps.Ping,
		trendWindow: window,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),
		started:     time.Now(),
	}
	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	route := func(pattern, component string, h http.HandlerFunc) {
		mux.Handle(pattern, log.ComponentMiddleware(component)(h))
	}

	route("GET /healthz", log.ComponentHTTP, s.handleHealth)
	route("GET /readyz", log.ComponentHTTP, s.handleReady)
	route("GET /metrics", log.ComponentHTTP, s.handleMetrics)

	route("GET /api/settings", log.ComponentSettings, s.handleGetSettings)
	route("PUT /api/settings", log.ComponentSettings, s.handlePutSettings)

	route("GET /api/payments", log.ComponentPayment, s.handleListPayments)
	route("POST /api/payments", log.ComponentPayment, s.handleRecordPayment)
	route("GET /api/payments/{date}", log.ComponentPayment, s.handleGetPayment)
	route("DELETE /api/payments/{date}", log.ComponentPayment, s.handleDeletePayment)

	route("GET /api/months/{year}/{month}", log.ComponentReconcile, s.handleMonth)
	route("GET /api/trend", log.ComponentReconcile, s.handleTrend)

	route("POST /api/receipts/extract", log.ComponentExtract, s.handleExtract)
	route("GET /api/reports/{year}/{month}", log.ComponentReport, s.handleReport)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = s.detect(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// detect logs suspicious requests without blocking them.
func (s *Server) detect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request detected",
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, try again later"})
}

// Shutdown stops background routines and the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
