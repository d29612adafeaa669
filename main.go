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

	"github.com/kmehta/taskhub-be/internal/api"
	"github.com/kmehta/taskhub-be/internal/auth"
	"github.com/kmehta/taskhub-be/internal/config"
	"github.com/kmehta/taskhub-be/internal/database"
	"github.com/kmehta/taskhub-be/internal/logger"
	"github.com/kmehta/taskhub-be/internal/mail"
	"github.com/kmehta/taskhub-be/internal/services"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the transactional mailer
	var mailer mail.Mailer = mail.Noop{}
	if cfg.SendgridAPIKey != "" {
		mailer = mail.NewClient(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromAddr)
	} else {
		log.Warn().Msg("SENDGRID_API_KEY not set, account notifications are disabled")
	}

	// Set up services
	tokens := auth.NewTokenService(cfg.JWTSecret)
	userService := services.NewUserService(db, tokens, mailer)
	taskService := services.NewTaskService(db)

	// Set up router
	router := api.NewRouter(userService, taskService, tokens, cfg.AllowedOrigin)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
