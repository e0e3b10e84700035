package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roshansubedi/apphub-auth/internal/api"
	"github.com/roshansubedi/apphub-auth/internal/auth"
	"github.com/roshansubedi/apphub-auth/internal/config"
	"github.com/roshansubedi/apphub-auth/internal/database"
	"github.com/roshansubedi/apphub-auth/internal/logger"
	"github.com/roshansubedi/apphub-auth/internal/mail"
	"github.com/roshansubedi/apphub-auth/internal/monitoring"
	"github.com/roshansubedi/apphub-auth/internal/services"
	"github.com/roshansubedi/apphub-auth/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database migrations")
	}

	// Set up collaborators
	userStore := store.NewSQLite(db)

	var notifier mail.Notifier
	if cfg.MailgunAPIKey != "" {
		notifier = mail.NewMailgun(cfg.MailgunAPIKey, cfg.MailgunDomain)
	} else {
		log.Warn().Msg("MAILGUN_API_KEY not set, outbound mail will be logged only")
		notifier = mail.LogNotifier{}
	}

	tokens := auth.NewTokenService([]byte(cfg.JWTSecret))

	// Set up services
	accountService := services.NewAccountService(userStore, notifier, tokens,
		cfg.SessionTokenTTL, cfg.ResetTokenTTL, cfg.ResetURLBase)

	// Set up and run the background janitor
	janitor, err := monitoring.NewJanitor(userStore, cfg.JanitorSchedule, cfg.UnverifiedRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize janitor")
	}
	go janitor.Run()

	// Set up router
	router := api.NewRouter(accountService, tokens, cfg)

	// Set up server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}
