package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/deppfellow/inquiry-intake/internal/database"
	"github.com/deppfellow/inquiry-intake/internal/handler"
	"github.com/deppfellow/inquiry-intake/internal/router"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.loggerService.Shutdown()

			ctx, stop := signalContext()
			defer stop()

			if migrate {
				dsn := database.DSN(&a.cfg.Database)
				if err := database.Migrate(ctx, &a.log, dsn, a.cfg.Inquiry.TableName); err != nil {
					return fmt.Errorf("failed to migrate database: %w", err)
				}
			}

			srv, services, err := a.buildServices()
			if err != nil {
				return err
			}

			handlers := handler.NewHandlers(srv, services)
			srv.SetupHTTPServer(router.NewRouter(srv, handlers))

			if err := runUntilDone(ctx, &a.log, srv.Start, func(ctx context.Context) error {
				return srv.Shutdown(ctx, false)
			}); err != nil {
				return err
			}

			a.log.Info().Msg("server exited properly")
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving")

	return cmd
}

// runUntilDone runs start until ctx is cancelled or start fails, then calls
// shutdown. A start failure other than http.ErrServerClosed is returned
// even when shutdown succeeds.
func runUntilDone(ctx context.Context, log *zerolog.Logger, start func() error, shutdown func(context.Context) error) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout)
	defer cancel()

	if err := shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return errors.Join(runErr, err)
	}

	return runErr
}
