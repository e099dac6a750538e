//	@title			BUMDes API
//	@version		1.0
//	@description	Backend for the BUMDes village cooperative storefront: catalogue, gallery, WhatsApp checkout and admin image uploads.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**. Browsers send the token cookie set by /auth/login instead.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/farzalfian/bumdes/internal/asset"
	"github.com/farzalfian/bumdes/internal/auth"
	"github.com/farzalfian/bumdes/internal/checkout"
	"github.com/farzalfian/bumdes/internal/config"
	"github.com/farzalfian/bumdes/internal/db"
	"github.com/farzalfian/bumdes/internal/gallery"
	"github.com/farzalfian/bumdes/internal/imaging"
	"github.com/farzalfian/bumdes/internal/logging"
	appMiddleware "github.com/farzalfian/bumdes/internal/middleware"
	"github.com/farzalfian/bumdes/internal/product"
	"github.com/farzalfian/bumdes/internal/ratelimit"
	"github.com/farzalfian/bumdes/internal/storage"
	"github.com/farzalfian/bumdes/internal/upload"

	_ "github.com/farzalfian/bumdes/docs/swagger"
)

func main() {
	cfg := config.Load()
	logger := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
		fatal(logger, "database migration failed", err)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		fatal(logger, "database connection failed", err)
	}
	defer pool.Close()

	store, err := newStorage(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "image storage init failed", err)
	}

	clock := clockwork.NewRealClock()

	limitStore, closeLimitStore, err := newLimitStore(ctx, cfg, clock)
	if err != nil {
		fatal(logger, "rate limit store init failed", err)
	}
	defer closeLimitStore()
	go ratelimit.RunSweeper(ctx, limitStore, clock, cfg.RateLimitSweepInterval, logging.Component("ratelimit_sweeper"))

	limiter := ratelimit.New(limitStore, ratelimit.Config{MaxRequests: cfg.RateLimitMax, Window: cfg.RateLimitWindow})

	// Wire dependencies: repository → service → handler
	transcoder := imaging.NewWebPTranscoder(cfg.ImageMaxDimension)
	uploadSvc := upload.NewService(transcoder, store, clock, logger)
	uploadHandler := upload.NewHandler(uploadSvc, limiter, logger)

	authSvc := auth.NewService(auth.NewRepository(pool), cfg.JWTSecret, clock, logger)
	if err := authSvc.Bootstrap(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminName); err != nil {
		fatal(logger, "admin bootstrap failed", err)
	}
	authHandler := auth.NewHandler(authSvc, cfg.IsProduction(), clock, logger)

	productHandler := product.NewHandler(product.NewService(product.NewRepository(pool), uploadSvc, logger), logger)
	galleryHandler := gallery.NewHandler(gallery.NewService(gallery.NewRepository(pool), uploadSvc, logger), logger)
	checkoutHandler := checkout.NewHandler(checkout.NewBuilder(cfg.WhatsAppNumber))
	assetHandler := asset.NewHandler(cfg.AssetDir, transcoder, cfg.AssetCacheSize, logger)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		// Login throttling keys on RemoteAddr; forwarded headers are client-controlled otherwise.
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(appMiddleware.Logger(logging.Component("http")))
	r.Use(appMiddleware.Metrics)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	if fs, ok := store.(*storage.FileSystem); ok {
		r.Handle(cfg.UploadPublicBase+"/*", http.StripPrefix(cfg.UploadPublicBase, http.FileServer(http.Dir(fs.Root()))))
	}

	requireAdmin := appMiddleware.RequireAdmin(cfg.JWTSecret)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/password", authHandler.ChangePassword)
				r.Get("/me", authHandler.Me)
			})
		})

		r.With(requireAdmin).Post("/upload", uploadHandler.Upload)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{id}", productHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", productHandler.Create)
				r.Put("/{id}", productHandler.Update)
				r.Delete("/{id}", productHandler.Delete)
			})
		})

		r.Route("/galleries", func(r chi.Router) {
			r.Get("/", galleryHandler.List)
			r.Get("/{id}", galleryHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", galleryHandler.Create)
				r.Put("/{id}", galleryHandler.Update)
				r.Delete("/{id}", galleryHandler.Delete)
			})
		})

		r.Post("/checkout", checkoutHandler.Checkout)
		r.Get("/asset/{file}", assetHandler.Serve)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func newStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.StorageDriver == "minio" {
		return storage.NewMinioStorage(ctx, storage.MinioOptions{
			Endpoint:   cfg.StorageEndpoint,
			AccessKey:  cfg.StorageAccessKey,
			SecretKey:  cfg.StorageSecretKey,
			Bucket:     cfg.StorageBucket,
			Prefix:     cfg.StoragePrefix,
			PublicBase: cfg.StoragePublicBase,
			UseSSL:     cfg.StorageUseSSL,
		}, logger)
	}
	return storage.NewFileSystem(cfg.UploadDir, cfg.UploadPublicBase)
}

func newLimitStore(ctx context.Context, cfg *config.Config, clock clockwork.Clock) (ratelimit.Store, func(), error) {
	if cfg.RedisURL == "" {
		return ratelimit.NewMemoryStore(clock), func() {}, nil
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return ratelimit.NewRedisStore(rdb, clock, "bumdes:ratelimit:"), func() { _ = rdb.Close() }, nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
