package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tunebox/cache"
	"tunebox/config"
	"tunebox/core/auth"
	"tunebox/core/events"
	"tunebox/core/library"
	"tunebox/db"
	"tunebox/logger"
	"tunebox/repository"
	"tunebox/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig 路由依赖
type RouterConfig struct {
	Service  LibraryService
	Verifier TokenVerifier
	Hub      *events.Hub
	Metrics  *Metrics
	Gatherer prometheus.Gatherer
	Health   map[string]HealthCheck
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := make(map[string]string, len(checks))
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		if !healthy {
			writeEnvelope(w, http.StatusServiceUnavailable, envelope{Success: false, Data: status, Error: "unhealthy"})
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// NewRouter 注册全部 API 路由
func NewRouter(rc RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)
	if rc.Metrics != nil {
		router.Use(rc.Metrics.Middleware)
	}

	// preflight requests only need the CORS headers
	router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	router.HandleFunc("/healthz", healthHandler(rc.Health)).Methods(http.MethodGet)
	if rc.Gatherer != nil {
		router.Handle("/metrics", MetricsHandler(rc.Gatherer)).Methods(http.MethodGet)
	}

	// registered ahead of the /api subrouter, which only accepts header tokens
	if rc.Hub != nil {
		ws := NewEventsHandler(rc.Hub)
		router.Handle(wsRoute, AuthMiddleware(rc.Verifier, true)(http.HandlerFunc(ws.ServeWS))).Methods(http.MethodGet)
	}

	lib := NewLibraryHandler(rc.Service, rc.Metrics)
	api := router.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(rc.Verifier, false))

	api.HandleFunc("/users/store", lib.StoreUserHandler).Methods(http.MethodPost)
	api.HandleFunc("/songs", lib.ListSongsHandler).Methods(http.MethodGet)
	api.HandleFunc("/songs", lib.RegisterSongHandler).Methods(http.MethodPost)
	api.HandleFunc("/songs/upload-url", lib.UploadURLHandler).Methods(http.MethodPost)
	api.HandleFunc("/songs/{id:[0-9]+}", lib.DeleteSongHandler).Methods(http.MethodDelete)
	api.HandleFunc("/songs/{id:[0-9]+}/image", lib.RegisterImageHandler).Methods(http.MethodPut)
	api.HandleFunc("/songs/{id:[0-9]+}/favorite", lib.FavoriteHandler).Methods(http.MethodPost)
	api.HandleFunc("/songs/{id:[0-9]+}/favorite", lib.UnfavoriteHandler).Methods(http.MethodDelete)
	api.HandleFunc("/songs/{id:[0-9]+}/favorite", lib.FavoriteStatusHandler).Methods(http.MethodGet)

	return router
}

// Start 连接依赖并启动 HTTP 服务，收到 SIGINT/SIGTERM 后优雅关闭
func Start(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}

	gdb, err := db.ConnectGormDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.CloseGormDB(gdb)
	if err := db.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	store, err := storage.NewMinioStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize MinIO: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to prepare bucket: %w", err)
	}

	health := map[string]HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	deps := library.Deps{
		Users:     repository.NewGormUserRepository(gdb),
		Songs:     repository.NewGormSongRepository(gdb),
		Favorites: repository.NewGormFavoriteRepository(gdb),
		Objects:   store,
		Policy:    auth.PolicyFor(cfg.AuthPolicy, cfg.AdminTokens),
	}

	// Redis 只用于签名地址缓存，不可用时降级为每次签名
	if rdb, err := cache.ConnectRedis(ctx, cfg); err != nil {
		logger.Warn("[Server] redis unavailable, signed URL cache disabled", logger.ErrorField(err))
	} else {
		defer rdb.Close()
		deps.URLCache = cache.NewURLCache(rdb)
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	hub := events.NewHub()
	go hub.Run()
	defer hub.Stop()
	deps.Notifier = hub

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := NewMetrics(reg, hub.ClientCount)

	router := NewRouter(RouterConfig{
		Service:  library.NewService(deps, library.OptionsFromConfig(cfg)),
		Verifier: verifier,
		Hub:      hub,
		Metrics:  metrics,
		Gatherer: reg,
		Health:   health,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] listening",
			logger.String("addr", srv.Addr),
			logger.String("favoriteKeying", cfg.FavoriteKeying),
			logger.String("authPolicy", cfg.AuthPolicy))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("[Server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("[Server] stopped")
	return nil
}
