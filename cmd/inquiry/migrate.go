package main

import (
	"context"

	"github.com/deppfellow/inquiry-intake/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the inquiry table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.loggerService.Shutdown()

			ctx, cancel := context.WithTimeout(cmd.Context(), DefaultContextTimeout)
			defer cancel()

			return database.Migrate(ctx, &a.log, database.DSN(&a.cfg.Database), a.cfg.Inquiry.TableName)
		},
	}
}
