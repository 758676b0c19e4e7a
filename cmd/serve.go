package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/roomwise/roomwise/internal/handlers"
	"github.com/roomwise/roomwise/internal/sessiontoken"
	"github.com/roomwise/roomwise/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var port, provider, model string
	var secureCookies bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the design wizard API server",
		Long: `Starts the Roomwise HTTP API on the specified port.

Each browser session gets its own wizard, identified by a signed cookie.
Clients upload the four wall photos, fill in their preferences, advance
through the steps and submit to generate a design plan, which is then
available from /api/results until the session expires.`,
		Example: `  # Start server on default port 8888 with the mock generator
  roomwise serve

  # Use Gemini on a custom port
  GEMINI_API_KEY=... roomwise serve --port 3000 --provider gemini`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			a.applyProviderFlags(cmd, provider, model)

			generated, err := a.cfg.EnsureSessionSecret()
			if err != nil {
				return err
			}
			if generated {
				slog.Warn("No session secret configured, using a random one; sessions will not survive a restart")
			}
			tokens, err := sessiontoken.New(a.cfg.SessionSecret, a.cfg.SessionTTL)
			if err != nil {
				return err
			}

			images := a.uploads()
			requester, err := a.requester(images)
			if err != nil {
				return err
			}

			sessions := storage.New()
			handler := handlers.New(handlers.Config{
				Sessions:       sessions,
				Uploads:        images,
				Tokens:         tokens,
				Requester:      requester,
				RequestTimeout: a.cfg.RequestTimeout,
				SecureCookies:  secureCookies,
			})

			// Set up routes
			mux := http.NewServeMux()
			handler.Register(mux)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + a.cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			defer handler.Close()
			go sweepSessions(ctx, handler, sessions, a.cfg.SessionTTL)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Roomwise API available", "addr", addr, "url", "http://localhost"+addr, "provider", a.cfg.Provider)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "Mark the session cookie Secure (behind HTTPS)")
	addProviderFlags(cmd, &provider, &model)

	return cmd
}

// sweepSessions drops idle wizard sessions and their images until ctx is done.
func sweepSessions(ctx context.Context, handler *handlers.Handler, sessions *storage.SessionStore, ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := handler.SweepSessions(now, ttl); len(removed) > 0 {
				slog.Info("Expired idle sessions", "count", len(removed), "remaining", sessions.Len())
			}
		}
	}
}
