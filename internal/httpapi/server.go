// Package httpapi exposes the advisory core over HTTP/JSON.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agrisense/advisor/advisory"
	"github.com/agrisense/advisor/community"
	"github.com/agrisense/advisor/internal/logger"
	"github.com/agrisense/advisor/market"
	"github.com/agrisense/advisor/rules"
	"github.com/agrisense/advisor/weather"
)

// Pinger is satisfied by *sql.DB and *sqlx.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the services behind the API. DB may be nil, in which case the
// health check does not probe storage.
type Deps struct {
	Engine      *rules.Engine
	Forecaster  weather.Forecaster
	Advisory    *advisory.Service
	Board       *market.Board
	Polls       *community.Polls
	Credits     community.CreditStore
	Analytics   community.Log
	DB          Pinger
	AdminSecret string
	Logger      *slog.Logger
}

type Server struct {
	deps   Deps
	log    *slog.Logger
	router *chi.Mux
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Analytics == nil {
		deps.Analytics = community.NewMemoryLog()
	}
	s := &Server{deps: deps, log: deps.Logger}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Get("/districts", s.handleDistricts)
		r.Post("/classify", s.handleClassify)
		r.Post("/recommend", s.handleRecommend)
		r.Get("/zones/{zone}/suggestions", s.handleZoneSuggestions)
		r.Post("/alerts", s.handleAlerts)
		r.Get("/forecast", s.handleForecast)
		r.Post("/dashboard", s.handleDashboard)

		r.Route("/market", func(r chi.Router) {
			r.Post("/trend", s.handleTrend)
			r.Get("/board", s.handleBoard)
			r.Get("/nearby/{district}", s.handleNearby)
		})

		r.Get("/schemes", s.handleSchemes)
		r.Get("/notices", s.handleNotices)
		r.Post("/yield", s.handleYield)

		r.Route("/polls", func(r chi.Router) {
			r.Get("/", s.handleListPolls)
			r.Post("/", s.handleCreatePoll)
			r.Get("/{pollId}", s.handleGetPoll)
			r.Post("/{pollId}/votes", s.handleVote)
		})

		r.Route("/farmers/{farmerId}", func(r chi.Router) {
			r.Post("/surveys", s.handleSurvey)
			r.Get("/credits", s.handleCredits)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminOnly(s.deps.AdminSecret))

			r.Get("/rules", s.handleListRules)
			r.Post("/rules", s.handleCreateRule)
			r.Get("/rules/{ruleId}", s.handleGetRule)
			r.Put("/rules/{ruleId}", s.handleUpdateRule)
			r.Delete("/rules/{ruleId}", s.handleDeleteRule)
			r.Post("/evaluate", s.handleEvaluate)
			r.Get("/analytics/{kind}", s.handleAnalytics)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	resp := map[string]any{"status": "healthy"}
	if s.deps.Engine != nil {
		if all, err := s.deps.Engine.ListRules(); err == nil {
			resp["rulesLoaded"] = len(all)
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, logger.Snapshot())
}

// record appends to an analytics log without failing the request
func (s *Server) record(ctx context.Context, kind community.Kind, payload any) {
	if err := s.deps.Analytics.Append(ctx, kind, payload); err != nil {
		s.log.Warn("failed to record analytics", "kind", kind, "error", err)
	}
}
