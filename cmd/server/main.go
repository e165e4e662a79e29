package main

import (
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/koihire-backend/internal/config"
	"github.com/ignatzorin/koihire-backend/internal/logger"
)

func main() {
	// Суммы уходят в JSON числами, а не строками.
	decimal.MarshalJSONWithoutQuotes = true

	if err := newRootCommand().Execute(); err != nil {
		logger.Log.WithError(err).Error("main: команда завершилась с ошибкой")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "koihire",
		Short:         "KoiHire API: проекты, заказы услуг, эскроу и уведомления",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(loaded.LogLevel, loaded.IsProduction())
			cfg = loaded
			return nil
		},
	}

	root.AddCommand(serveCommand(&cfg))
	root.AddCommand(migrateCommand(&cfg))
	return root
}
