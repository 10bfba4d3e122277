package app

import (
	"log/slog"
	"net/http"

	"github.com/heartmarshall/fqclock-backend/internal/auth"
	"github.com/heartmarshall/fqclock-backend/internal/config"
	"github.com/heartmarshall/fqclock-backend/internal/service/identity"
	"github.com/heartmarshall/fqclock-backend/internal/service/snapshot"
	"github.com/heartmarshall/fqclock-backend/internal/transport/middleware"
	"github.com/heartmarshall/fqclock-backend/internal/transport/rest"
)

// router is the HTTP surface of the server. Stop releases the rate limiter.
type router struct {
	http.Handler
	limiter *middleware.RateLimiter
}

func (r *router) Stop() { r.limiter.Stop() }

func newRouter(cfg *config.Config, b *backend, logger *slog.Logger) *router {
	snapshotSvc := snapshot.NewService(logger, b.tx, b.snapshots, snapshot.Options{
		MaxItems: cfg.Sync.MaxItemsPerCollection,
	})
	identitySvc := identity.NewService(logger, b.users)

	var jwtManager *auth.JWTManager
	if cfg.Auth.TokensEnabled() {
		jwtManager = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	}

	var loginHandler *rest.LoginHandler
	if jwtManager != nil {
		loginHandler = rest.NewLoginHandler(identitySvc, jwtManager, cfg.Server.MaxBodyBytes, logger)
	} else {
		loginHandler = rest.NewLoginHandler(identitySvc, nil, cfg.Server.MaxBodyBytes, logger)
	}
	snapshotHandler := rest.NewSnapshotHandler(snapshotSvc, b.mode, cfg.Server.MaxBodyBytes, logger)

	var healthHandler *rest.HealthHandler
	if b.pool != nil {
		healthHandler = rest.NewHealthHandler(b.pool, b.mode, BuildVersion())
	} else {
		healthHandler = rest.NewHealthHandler(nil, b.mode, BuildVersion())
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)

	var authMW, pathUserMW middleware.Middleware
	if jwtManager != nil {
		authMW = middleware.Auth(jwtManager, cfg.Auth.RequireToken)
		pathUserMW = middleware.PathUser("userId")
	}
	data := middleware.Chain(
		limiter.Limit(cfg.RateLimit.RequestsPerMinute),
		middleware.Timeout(cfg.Sync.RequestTimeout),
		authMW,
		pathUserMW,
	)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /health", healthHandler.Health)

	login := middleware.Timeout(cfg.Sync.RequestTimeout)(http.HandlerFunc(loginHandler.Login))
	mux.Handle("POST /login", login)
	mux.Handle("POST /api/login", login)

	mux.Handle("GET /api/user-data/{userId}", data(http.HandlerFunc(snapshotHandler.Load)))
	mux.Handle("POST /api/save-data/{userId}", data(http.HandlerFunc(snapshotHandler.Save)))

	global := middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
	)

	return &router{Handler: global(mux), limiter: limiter}
}
