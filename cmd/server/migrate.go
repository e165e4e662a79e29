package main

import (
	"context"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/koihire-backend/internal/config"
	"github.com/ignatzorin/koihire-backend/internal/db"
	"github.com/ignatzorin/koihire-backend/internal/logger"
)

func migrateCommand(cfg **config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Управление схемой базы данных",
	}
	cmd.AddCommand(migrateDirectionCommand(cfg, "up", "Применить миграции", migrate.Up))
	cmd.AddCommand(migrateDirectionCommand(cfg, "down", "Откатить миграции", migrate.Down))
	return cmd
}

func migrateDirectionCommand(cfg **config.Config, use, short string, direction migrate.MigrationDirection) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.NewPostgres(context.Background(), (*cfg).DatabaseURL)
			if err != nil {
				return err
			}
			defer safeClose(conn)

			n, err := db.Migrate(conn, direction)
			if err != nil {
				return err
			}
			logger.Log.WithFields(map[string]interface{}{"direction": use, "count": n}).Info("migrate: готово")
			return nil
		},
	}
}
