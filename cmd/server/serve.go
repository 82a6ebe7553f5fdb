package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/catatkas/backend/internal/handlers"
	mW "github.com/catatkas/backend/internal/middleware"
	"github.com/catatkas/backend/internal/services"
	"github.com/catatkas/backend/internal/telegram"
)

const webhookPath = "/webhook/telegram"

func serveCmd() *cobra.Command {
	var runMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram webhook server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Telegram.Token == "" {
				return errors.New("telegram.token is required to serve")
			}

			a, err := newApp(ctx, cfg, runMigrations)
			if err != nil {
				return err
			}
			defer a.Close()

			bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, "", nil)
			if err != nil {
				return err
			}

			var transcriber services.Transcriber
			if cfg.Voice.Enabled {
				speech, err := services.NewSpeechTranscriber(ctx, cfg.Voice.LanguageCode)
				if err != nil {
					return err
				}
				defer speech.Close()
				transcriber = speech
				slog.Info("Voice commands enabled", "language", cfg.Voice.LanguageCode)
			}

			webhookHandler := handlers.NewWebhookHandler(a.dispatcher, bot, transcriber)
			healthHandler := handlers.NewHealthHandler(a.store)

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.RealIP)
			r.Use(middleware.Logger)
			r.Use(middleware.Recoverer)
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/health", healthHandler.Health)
			r.With(mW.WebhookSecret(cfg.Telegram.WebhookSecret)).Post(webhookPath, webhookHandler.HandleUpdate)

			server := &http.Server{
				Addr:         ":" + cfg.Server.Port,
				Handler:      r,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 75 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				slog.Info("Server starting", "addr", server.Addr, "bot", bot.Username(), "store", cfg.Store.Backend)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			slog.Info("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			slog.Info("Server stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&runMigrations, "migrate", false, "apply pending Postgres migrations before serving")
	return cmd
}
