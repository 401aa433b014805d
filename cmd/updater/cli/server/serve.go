package server

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwantia/updater/internal/agent"
	config "github.com/mwantia/updater/internal/config/server"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the update API and website",
		Long: `Start the update API and website.

The metadata store is migrated to the latest schema before the HTTP
server starts accepting requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			agent := agent.NewAgent(cfg)
			if err := agent.Serve(context.Background()); err != nil {
				return err
			}

			return nil
		},
	}

	cmd.Flags().String("address", "", "listen address (overrides http.address)")
	viper.BindPFlag("http.address", cmd.Flags().Lookup("address"))

	return cmd
}
