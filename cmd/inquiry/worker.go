package main

import (
	"context"
	"fmt"

	"github.com/deppfellow/inquiry-intake/internal/server"
	"github.com/spf13/cobra"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume the notification queue and e-mail the administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.loggerService.Shutdown()

			ctx, stop := signalContext()
			defer stop()

			srv, services, err := a.buildServices(server.WithoutDatabase())
			if err != nil {
				return err
			}

			srv.Job.InitHandlers(services.Notification)
			if err := srv.Job.Start(); err != nil {
				_ = srv.Shutdown(context.Background(), false)
				return fmt.Errorf("failed to start notification worker: %w", err)
			}

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx, true); err != nil {
				a.log.Error().Err(err).Msg("worker forced to shutdown")
				return err
			}

			a.log.Info().Msg("worker exited properly")
			return nil
		},
	}
}
