package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"kare/internal/domain/audit"
	"kare/internal/domain/auth"
	"kare/internal/domain/incapacity"
	"kare/internal/domain/notifications"
	"kare/internal/domain/reconciliation"
	"kare/internal/domain/replacement"
	"kare/internal/domain/reports"
	"kare/internal/platform/config"
	"kare/internal/platform/crypto"
	"kare/internal/platform/db"
	"kare/internal/platform/email"
	"kare/internal/platform/jobs"
	"kare/internal/platform/metrics"
	"kare/internal/platform/ocr"
	"kare/internal/platform/storage"
	auditloghandler "kare/internal/transport/http/handlers/auditlog"
	authhandler "kare/internal/transport/http/handlers/auth"
	incapacitieshandler "kare/internal/transport/http/handlers/incapacities"
	notificationshandler "kare/internal/transport/http/handlers/notifications"
	reconciliationshandler "kare/internal/transport/http/handlers/reconciliations"
	replacementshandler "kare/internal/transport/http/handlers/replacements"
	reportshandler "kare/internal/transport/http/handlers/reports"
	usershandler "kare/internal/transport/http/handlers/users"
	"kare/internal/transport/http/middleware"
)

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	cryptoSvc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		log.Fatalf("encryption key invalid: %v", err)
	}
	storageSvc, err := storage.New(cfg.StorageDir, cryptoSvc)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	ocrClient := ocr.New(cfg.OCRServiceURL, cfg.OCRTimeout)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	authStore := auth.NewStore(pool)
	incapacityStore := incapacity.NewStore(pool)
	reconciliationStore := reconciliation.NewStore(pool)
	replacementStore := replacement.NewStore(pool)
	notificationStore := notifications.NewStore(pool)
	reportsStore := reports.NewStore(pool)

	notifySvc := notifications.New(notificationStore, email.New(cfg), cfg.EmailFrom, cfg.EmailEnabled)
	incapacitySvc := incapacity.NewService(incapacityStore, authStore, notifySvc, storageSvc, ocrClient)
	reconciliationSvc := reconciliation.NewService(reconciliationStore, incapacityStore, notifySvc, collector)
	replacementSvc := replacement.NewService(replacementStore, incapacityStore, notifySvc)
	reportsSvc := reports.NewService(reportsStore, cfg.SeedCompanyName)
	auditSvc := audit.New(pool)

	jobsSvc := jobs.New(pool, cfg, incapacityStore, authStore, notifySvc)
	jobsSvc.Start(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Metrics(collector))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, cfg.JWTSecret, cfg).RegisterRoutes(r)
		usershandler.NewHandler(authStore, authStore, auditSvc).RegisterRoutes(r)
		incapacitieshandler.NewHandler(incapacitySvc, authStore, auditSvc, collector, cfg.MaxDocumentBytes).RegisterRoutes(r)
		reconciliationshandler.NewHandler(reconciliationSvc, reportsSvc, authStore, auditSvc).RegisterRoutes(r)
		replacementshandler.NewHandler(replacementSvc, authStore, auditSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc, authStore).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, jobsSvc, collector, authStore).RegisterRoutes(r)
		auditloghandler.NewHandler(auditSvc, authStore).RegisterRoutes(r)
	})

	slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
