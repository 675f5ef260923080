package api

import (
	"net/http"
	"time"

	"fightbook/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Server exposes the wagering engine over HTTP. It owns no business logic:
// every handler validates input, calls one service operation and maps the
// result or its typed error onto a status code.
type Server struct {
	accounts    service.AccountService
	placement   service.PlacementService
	settlement  service.SettlementService
	refunds     service.RefundService
	leaderboard service.LeaderboardService
	processor   service.ResultsProcessor
	validate    *validator.Validate
}

// NewServer creates an HTTP server over the given services
func NewServer(
	accounts service.AccountService,
	placement service.PlacementService,
	settlement service.SettlementService,
	refunds service.RefundService,
	leaderboard service.LeaderboardService,
	processor service.ResultsProcessor,
) *Server {
	return &Server{
		accounts:    accounts,
		placement:   placement,
		settlement:  settlement,
		refunds:     refunds,
		leaderboard: leaderboard,
		processor:   processor,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router builds the route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/wagers", s.placeWager)

		r.Route("/accounts/{accountID}", func(r chi.Router) {
			r.Get("/", s.getAccount)
			r.Get("/wagers", s.listWagers)
			r.Get("/transactions", s.listTransactions)
			r.Post("/bonus", s.grantBonus)
		})

		r.Get("/leaderboard", s.getLeaderboard)

		r.Route("/events", func(r chi.Router) {
			r.Post("/snapshots", s.ingestSnapshot)
			r.Post("/{eventID}/settle", s.settleEvent)
			r.Post("/{eventID}/refunds", s.processRefunds)
		})
	})

	return r
}

// requestLogger logs one line per request after it completes
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"duration":  time.Since(start).String(),
			"requestId": middleware.GetReqID(r.Context()),
		}).Info("Request handled")
	})
}
