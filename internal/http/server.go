package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"faktura/internal/log"
	"faktura/internal/middleware/ratelimit"
	"faktura/internal/middleware/security"
	"faktura/internal/middleware/trace"
	"faktura/internal/services"
)

// maxHorizon bounds ?months= on the forecast endpoint.
const maxHorizon = 120

// Services are the application services the API exposes.
type Services struct {
	Expenses   *services.ExpenseService
	Invoices   *services.InvoiceService
	Recipients *services.RecipientService
	Settings   *services.SettingsService
	Forecasts  *services.ForecastService
}

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the middleware stack. Zero values take defaults.
type Options struct {
	RequestsPerMinute int
	TrustedProxies    []string
	Logger            *log.Logger
}

type Server struct {
	http.Server
	svc      Services
	storage  Pinger
	validate *validator.Validate

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, storage Pinger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	limiterCfg := ratelimit.DefaultConfig()
	if opts.RequestsPerMinute > 0 {
		limiterCfg.RequestsPerMinute = opts.RequestsPerMinute
	}

	s := &Server{
		svc:              svc,
		storage:          storage,
		validate:         newValidator(),
		rateLimiter:      ratelimit.NewLimiter(limiterCfg),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		startedAt:        time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/forecast", s.handleForecast)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/recurring-expenses", s.handleListRecurring)
	mux.HandleFunc("POST /api/recurring-expenses", s.handleCreateRecurring)
	mux.HandleFunc("PATCH /api/recurring-expenses/{id}", s.handleUpdateRecurring)
	mux.HandleFunc("DELETE /api/recurring-expenses/{id}", s.handleDeleteRecurring)

	mux.HandleFunc("GET /api/one-off-expenses", s.handleListOneOff)
	mux.HandleFunc("POST /api/one-off-expenses", s.handleCreateOneOff)
	mux.HandleFunc("PATCH /api/one-off-expenses/{id}", s.handleUpdateOneOff)
	mux.HandleFunc("DELETE /api/one-off-expenses/{id}", s.handleDeleteOneOff)

	mux.HandleFunc("GET /api/invoices", s.handleListInvoices)
	mux.HandleFunc("POST /api/invoices", s.handleCreateInvoice)
	mux.HandleFunc("GET /api/invoices/{id}", s.handleGetInvoice)
	mux.HandleFunc("PATCH /api/invoices/{id}/status", s.handleInvoiceStatus)
	mux.HandleFunc("DELETE /api/invoices/{id}", s.handleDeleteInvoice)

	mux.HandleFunc("GET /api/recipients", s.handleListRecipients)
	mux.HandleFunc("POST /api/recipients", s.handleCreateRecipient)
	mux.HandleFunc("DELETE /api/recipients/{id}", s.handleDeleteRecipient)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("PUT /api/settings/starting-balance", s.handleUpdateStartingBalance)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
