package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/doideposit/internal/config"
	"github.com/dgallion1/doideposit/internal/crossref"
	"github.com/dgallion1/doideposit/internal/sink"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gocache "github.com/patrickmn/go-cache"
)

// Validator checks a record against the remote schema parser.
type Validator interface {
	Validate(ctx context.Context, filename, record string) (crossref.Verdict, error)
}

// Depositor uploads a record to the deposit endpoint.
type Depositor interface {
	Deposit(ctx context.Context, filename, record string) (*crossref.DepositResponse, error)
}

// Server is the HTTP API server for doideposit.
type Server struct {
	router    chi.Router
	validator Validator
	depositor Depositor
	archive   sink.Sink
	stats     *crossref.LatencyStats
	deposited *gocache.Cache
	log       *slog.Logger
	cfg       config.Config
	now       func() time.Time
}

// NewServer creates and configures the HTTP server. archive and stats may be nil.
func NewServer(validator Validator, depositor Depositor, archive sink.Sink, stats *crossref.LatencyStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		validator: validator,
		depositor: depositor,
		archive:   archive,
		stats:     stats,
		deposited: gocache.New(cfg.DedupWindow, cfg.DedupWindow),
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey))

		r.Post("/api/records", s.handleCreateRecord)
		r.Post("/api/records/validate", s.handleValidateRecord)
		r.Post("/api/records/deposit", s.handleDepositRecord)
		r.Post("/api/render", s.handleRender)
		r.Get("/api/stats/remote", s.handleRemoteStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
