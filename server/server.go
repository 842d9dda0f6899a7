// Package server wires the HTTP surface: routes, CORS, rate limiting and
// request logging.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"tempora/handlers/auth"
	"tempora/handlers/markets"
	"tempora/handlers/positions"
	"tempora/handlers/trades"
	"tempora/handlers/users"
	"tempora/middleware"
	"tempora/setup"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// NewRouter builds the /v0 API router.
func NewRouter(db *gorm.DB, cfg *setup.Config) http.Handler {
	r := mux.NewRouter()
	v0 := r.PathPrefix("/v0").Subrouter()

	v0.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	v0.HandleFunc("/auth/register", auth.RegisterHandler(db, cfg)).Methods(http.MethodPost)
	v0.HandleFunc("/auth/login", auth.LoginHandler(db, cfg)).Methods(http.MethodPost)

	v0.HandleFunc("/markets", markets.ListMarketsHandler(db, cfg)).Methods(http.MethodGet)
	v0.HandleFunc("/markets", markets.CreateMarketHandler(db, cfg)).Methods(http.MethodPost)
	v0.HandleFunc("/markets/{id}", markets.GetMarketHandler(db, cfg)).Methods(http.MethodGet)
	v0.HandleFunc("/markets/{id}", markets.UpdateMarketHandler(db, cfg)).Methods(http.MethodPatch)
	v0.HandleFunc("/markets/{id}/securities", markets.ListSecuritiesHandler(db)).Methods(http.MethodGet)
	v0.HandleFunc("/markets/{id}/resolve", markets.ResolveMarketHandler(db, cfg)).Methods(http.MethodPost)

	// The price route must register before the dynamic trade routes would
	// otherwise shadow it.
	v0.HandleFunc("/trades/price", trades.PriceTradeHandler(db, cfg)).Methods(http.MethodGet)
	v0.HandleFunc("/trades", trades.ListTradesHandler(db, cfg)).Methods(http.MethodGet)
	v0.HandleFunc("/trades", trades.PlaceTradeHandler(db, cfg)).Methods(http.MethodPost)

	v0.HandleFunc("/users/me/profile", users.GetMyProfileHandler(db, cfg)).Methods(http.MethodGet)
	v0.HandleFunc("/users/me/portfolio", positions.GetPortfolioHandler(db, cfg)).Methods(http.MethodGet)
	v0.HandleFunc("/users/{id}/profile", users.GetUserProfileHandler(db)).Methods(http.MethodGet)

	limiter := middleware.NewRateLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst)
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})

	return c.Handler(limiter.Middleware(requestLogger(r)))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
