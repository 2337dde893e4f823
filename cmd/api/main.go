package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aplatonov-me/Bank-REST/internal/config"
	"github.com/aplatonov-me/Bank-REST/internal/handler"
	"github.com/aplatonov-me/Bank-REST/internal/middleware"
	"github.com/aplatonov-me/Bank-REST/internal/repository"
	"github.com/aplatonov-me/Bank-REST/internal/service"
	"github.com/aplatonov-me/Bank-REST/internal/utils"
	"github.com/aplatonov-me/Bank-REST/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db, cfg.LockTimeout)
	if err := repo.Migrate(context.Background()); err != nil {
		logger.Fatalf("Failed to apply migrations: %v", err)
	}

	enc, err := utils.NewEncryptor([]byte(cfg.EncryptionKey))
	if err != nil {
		logger.Fatalf("Failed to initialize encryptor: %v", err)
	}

	var svc *service.Service
	if cfg.SMTPConfigured() {
		svc = service.NewService(repo, repo, enc, email.NewSender(cfg, logger), logger, cfg)
	} else {
		svc = service.NewService(repo, repo, enc, nil, logger, cfg)
	}
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/auth/login", h.Login).Methods("POST")

	// Authenticated routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/cards/my", h.ListMyCards).Methods("GET")
	authRouter.HandleFunc("/cards/status", h.UpdateCardStatus).Methods("PUT")
	authRouter.HandleFunc("/cards/transfer", h.TransferFunds).Methods("POST")
	authRouter.HandleFunc("/cards/{id:[0-9]+}", h.GetCard).Methods("GET")

	// Administrative routes
	adminRouter := authRouter.PathPrefix("/").Subrouter()
	adminRouter.Use(middleware.AdminMiddleware)
	adminRouter.HandleFunc("/cards", h.CreateCard).Methods("POST")
	adminRouter.HandleFunc("/cards", h.ListAllCards).Methods("GET")
	adminRouter.HandleFunc("/cards/{id:[0-9]+}", h.DeleteCard).Methods("DELETE")
	adminRouter.HandleFunc("/users", h.CreateUser).Methods("POST")
	adminRouter.HandleFunc("/users", h.ListUsers).Methods("GET")
	adminRouter.HandleFunc("/users/roles", h.AssignRole).Methods("POST")
	adminRouter.HandleFunc("/users/roles", h.RemoveRole).Methods("DELETE")
	adminRouter.HandleFunc("/users/{id:[0-9]+}", h.GetUser).Methods("GET")
	adminRouter.HandleFunc("/users/{id:[0-9]+}", h.DeleteUser).Methods("DELETE")
	adminRouter.HandleFunc("/reports/cards", h.CardsReport).Methods("GET")

	// Scheduled expired-card report. Status is never changed automatically.
	c := cron.New()
	if _, err := c.AddFunc(cfg.ExpiredCardsCron, func() {
		svc.ReportExpiredCards(context.Background())
	}); err != nil {
		logger.Fatalf("Failed to schedule expired-card report: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
