package http

import (
	"context"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	applog "fust/internal/log"
	"fust/internal/middleware/ratelimit"
	"fust/internal/middleware/security"
	"fust/internal/middleware/trace"
	"fust/internal/ports"
	"fust/internal/services"
	appweb "fust/web"
)

const (
	defaultMaxUploadBytes = 10 << 20
	staticMaxAge          = 3600
	readinessTimeout      = 2 * time.Second
)

// Ledger is what the handlers need from the backend: the ledger ports plus
// CSV import. *services.LedgerService satisfies it.
type Ledger interface {
	ports.Ledger
	ImportCSV(ctx context.Context, r io.Reader) (services.ImportResult, error)
}

// Options configures NewServer. Zero values select defaults.
type Options struct {
	Addr              string
	CORSAllowedOrigin string
	MaxUploadBytes    int64
	Logger            *applog.Logger

	// WritesPerMinute limits POST requests per client IP; 0 disables it.
	WritesPerMinute int

	// Templates and Static default to the embedded web assets.
	Templates fs.FS
	Static    fs.FS
}

type Server struct {
	http.Server
	templates      *template.Template
	ledger         Ledger
	logger         *applog.Logger
	maxUploadBytes int64
	metrics        *appMetrics
	limiter        *ratelimit.Limiter
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(ledger Ledger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.Templates == nil {
		opts.Templates = appweb.TemplatesFS
	}
	if opts.Static == nil {
		if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
			opts.Static = sub
		} else {
			logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
		}
	}

	s := &Server{
		ledger:         ledger,
		logger:         logger.WithComponent(applog.ComponentHTTP),
		maxUploadBytes: opts.MaxUploadBytes,
		metrics:        &appMetrics{startedAt: time.Now()},
	}

	// Parse templates at startup; the index handler answers 500 without them.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(opts.Templates, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
		t = nil
	}
	s.templates = t

	mux := http.NewServeMux()

	if opts.Static != nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(opts.Static)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/partijen", s.handleListPartijen)
	mux.HandleFunc("POST /api/partijen", s.handleCreatePartij)
	mux.HandleFunc("GET /api/partijen/{id}", s.handleGetPartij)

	mux.HandleFunc("GET /api/mutaties", s.handleListMutaties)
	mux.HandleFunc("POST /api/mutaties", s.handleCreateMutatie)
	mux.HandleFunc("GET /api/mutaties/partij/{id}", s.handleListMutatiesByPartij)
	mux.HandleFunc("POST /api/mutaties/csv-import", s.handleImportCSV)

	mux.HandleFunc("GET /api/overzicht", s.handleOverzicht)
	mux.HandleFunc("GET /api/overzicht/export", s.handleExportOverzicht)

	// Outermost first: trace sees every response, CORS runs before the
	// security headers so they can tell a cross-origin response apart.
	ipResolver := security.NewClientIPResolver()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	if opts.WritesPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.WritesPerMinute})
		handler = s.limiter.WritesOnly(ipResolver.ExtractClientIP, s.rejectRateLimited)(handler)
	}
	handler = headers.Middleware(handler)
	handler = security.CORS(opts.CORSAllowedOrigin)(handler)
	handler = trace.NewMiddleware(logger, ipResolver.ExtractClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.Server.Shutdown(ctx)
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
	writeFailure(w, r, http.StatusTooManyRequests, "Te veel verzoeken, probeer het later opnieuw")
}
