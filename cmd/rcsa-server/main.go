// Package main provides the RCSA workflow server entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smartbank/rcsa/pkg/identity"
	"github.com/smartbank/rcsa/pkg/rcsa"
	"github.com/smartbank/rcsa/pkg/units"
)

type config struct {
	ListenAddr  string `env:"RCSA_LISTEN" envDefault:":8080"`
	DBType      string `env:"RCSA_DB_TYPE" envDefault:"mysql"`
	DBDSN       string `env:"RCSA_DB_DSN"`
	JWTHMACKey  string `env:"RCSA_JWT_HMAC_KEY"`
	CORSOrigins string `env:"RCSA_CORS_ORIGINS" envDefault:"*"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		glog.Fatalf("Failed to parse environment config: %v", err)
	}

	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Address to listen on")
	flag.StringVar(&cfg.DBType, "db-type", cfg.DBType, "Database type (mysql, postgres, or sqlite)")
	flag.StringVar(&cfg.DBDSN, "db-dsn", cfg.DBDSN, "Database connection string")
	flag.StringVar(&cfg.CORSOrigins, "cors-origins", cfg.CORSOrigins, "Comma-separated allowed CORS origins")
	flag.Parse()

	_ = flag.Set("logtostderr", "true")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting rcsa server",
		"listen", cfg.ListenAddr,
		"dbType", cfg.DBType,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gormDB, err := setupDatabase(cfg.DBType, cfg.DBDSN)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	stores := rcsa.NewStores(gormDB)
	if err := stores.Masters.AutoMigrate(); err != nil {
		glog.Fatalf("Failed to migrate workflow tables: %v", err)
	}
	directory := units.NewDirectory(gormDB)
	if err := directory.AutoMigrate(); err != nil {
		glog.Fatalf("Failed to migrate units table: %v", err)
	}

	router := chi.NewRouter()
	router.Use(requestLogger(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authn := identity.Authenticator(identity.MiddlewareConfig{
		HMACKey: []byte(cfg.JWTHMACKey),
		Logger:  logger,
	})
	router.Route("/api/v1", func(r chi.Router) {
		r.With(authn).Mount("/rcsa", rcsa.NewRouter(stores))
		r.With(authn).Mount("/units", units.NewRouter(directory))
	})
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	logger.Info("rcsa server ready", "listen", cfg.ListenAddr)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("rcsa server stopped")
}

// requestLogger logs one line per request with a correlation id.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.New().String()
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("request",
				"id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
			)
		})
	}
}

func setupDatabase(dbType, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required (use -db-dsn flag or RCSA_DB_DSN environment variable)")
	}

	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	switch dbType {
	case "mysql":
		return gorm.Open(mysql.Open(dsn), gormCfg)
	case "postgres":
		return gorm.Open(postgres.Open(dsn), gormCfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database type %q (expected mysql, postgres, or sqlite)", dbType)
	}
}
