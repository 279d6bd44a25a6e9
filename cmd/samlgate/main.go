package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/refermd/samlgate/pkg/directory"
	"github.com/refermd/samlgate/pkg/observability"
	"github.com/refermd/samlgate/pkg/session"
	"github.com/refermd/samlgate/pkg/tenant"
	"github.com/refermd/samlgate/pkg/web"
)

func main() {
	addr := flag.String("addr", ":8080", "Address to listen on")
	configPath := flag.String("config", "tenants.yaml", "Path to the tenant registry file")
	dbDriver := flag.String("db-driver", "postgres", "Database driver (postgres or sqlite3)")
	dbDSN := flag.String("db-dsn", os.Getenv("SAMLGATE_DB_DSN"), "Database connection string")
	sessionTTL := flag.Duration("session-ttl", 24*time.Hour, "Authenticated session lifetime")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	}

	registry, err := tenant.LoadRegistry(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load tenant registry")
	}
	log.WithField("tenants", registry.IDs()).Info("tenant registry loaded")

	if *dbDSN == "" {
		log.Fatal("database DSN is required (-db-dsn or SAMLGATE_DB_DSN)")
	}
	db, err := sql.Open(*dbDriver, *dbDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("failed to reach database")
	}
	if err := directory.EnsureSchema(ctx, db, *dbDriver); err != nil {
		log.WithError(err).Fatal("failed to ensure directory schema")
	}
	if err := session.EnsureSchema(ctx, db); err != nil {
		log.WithError(err).Fatal("failed to ensure session schema")
	}

	metrics := observability.NewMetrics(nil)
	sessions := session.NewManager(db, *sessionTTL)
	reconciler := directory.NewReconciler(directory.NewSQLStore(db))

	router := mux.NewRouter()
	handlers := web.NewHandlers(registry, nil, reconciler, sessions, metrics, log)
	handlers.RegisterRoutes(router)
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.WithField("addr", *addr).Info("starting samlgate")
	if err := server.ListenAndServe(); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
