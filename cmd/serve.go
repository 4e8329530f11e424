package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"health_dashboard/internal/config"
	"health_dashboard/internal/handlers"
	"health_dashboard/internal/logger"
	"health_dashboard/internal/server"

	"github.com/spf13/cobra"
)

// @title                       Health Dashboard API
// @version                     1.0
// @description                 Health session (steps and heart rate) behind a provider facade.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the HTTP API, the /ws snapshot stream and swagger docs at
/swagger/index.html. With session.refresh_interval > 0 a background loop
refreshes the metrics while the session is ready.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if cfg.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required (set HEALTH_AUTH_SIGNING_KEY)")
	}

	a, err := buildApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	apiHandler := handlers.NewHandler(a.services, log.Named("http"),
		handlers.WithAllowedOrigins(cfg.Server.AllowedOrigins...))

	// context for background goroutines
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	go a.services.Refresher.Run(ctx, cfg.Session.RefreshInterval)

	srv := &server.Server{}
	serveErr := runHTTPServer(srv, cfg.Server, apiHandler, log)

	return waitForShutdown(cancel, srv, serveErr, cfg.Server, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, sc config.ServerConfig, handler *handlers.Handler, log *logger.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Infow("http_listening", "addr", sc.Addr())
		errCh <- srv.Run(sc.Addr(), handler.InitRoutes(), server.Options{
			ReadHeaderTimeout: sc.ReadHeaderTimeout,
			WriteTimeout:      sc.WriteTimeout,
			IdleTimeout:       sc.IdleTimeout,
		})
	}()
	return errCh
}

// waitForShutdown blocks until a termination signal or a server failure,
// then stops background work and drains in-flight requests.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, serveErr <-chan error, sc config.ServerConfig, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serveErr:
		cancel()
		if err != nil {
			log.Errorw("error starting server", "err", err)
		}
		return err
	}

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
		return err
	}
	return nil
}
