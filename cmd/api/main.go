package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/andrei-d/partybank/internal/config"
	"github.com/andrei-d/partybank/internal/exchange"
	"github.com/andrei-d/partybank/internal/handler"
	"github.com/andrei-d/partybank/internal/integrations/bnr"
	"github.com/andrei-d/partybank/internal/middleware"
	"github.com/andrei-d/partybank/internal/notify"
	"github.com/andrei-d/partybank/internal/repository"
	"github.com/andrei-d/partybank/internal/service"
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

	// Exchange table, seeded from the BNR feed and refreshed daily
	fx := exchange.NewTable()
	bnrClient := bnr.NewClient(cfg, logger)
	if err := bnrClient.Refresh(fx); err != nil {
		logger.Warnf("Initial exchange rate load failed: %v", err)
	}
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RateCron, func() {
		if err := bnrClient.Refresh(fx); err != nil {
			logger.Errorf("Exchange rate refresh failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule rate refresh: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Notification hook: SMTP when configured, otherwise dropped
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.SMTPHost != "" {
		notifier = notify.NewEmailNotifier(cfg, logger)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, fx, notifier, logger, cfg)
	h := handler.NewHandler(svc, fx, logger)

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/exchange/rates", h.ExchangeRates).Methods("GET")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	authRouter.HandleFunc("/accounts", h.ListAccounts).Methods("GET")
	authRouter.HandleFunc("/accounts/{id}", h.CloseAccount).Methods("DELETE")
	authRouter.HandleFunc("/accounts/{id}/default", h.SetDefaultAccount).Methods("POST")
	authRouter.HandleFunc("/accounts/{id}/cards", h.IssueCard).Methods("POST")
	authRouter.HandleFunc("/accounts/{id}/cards", h.ListCards).Methods("GET")
	authRouter.HandleFunc("/cards/{id}/transactions", h.CreateCardTransaction).Methods("POST")
	authRouter.HandleFunc("/transfers", h.SendTransfer).Methods("POST")
	authRouter.HandleFunc("/transfers", h.ListTransfers).Methods("GET")
	authRouter.HandleFunc("/transfer-requests/{id}/respond", h.RespondToRequest).Methods("POST")
	authRouter.HandleFunc("/parties", h.CreateParty).Methods("POST")
	authRouter.HandleFunc("/parties/{id}", h.GetParty).Methods("GET")
	authRouter.HandleFunc("/parties/{id}/respond", h.RespondToParty).Methods("POST")
	authRouter.HandleFunc("/activity", h.RecentActivity).Methods("GET")

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
