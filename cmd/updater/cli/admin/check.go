package admin

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwantia/updater/internal/updater"
)

func NewBuildsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "builds",
		Short: "Maintain published builds",
	}

	cmd.AddCommand(newBuildsCheckCommand())

	return cmd
}

func newBuildsCheckCommand() *cobra.Command {
	var (
		remove  bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report full builds whose download answers 404",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			client := &http.Client{Timeout: timeout}
			missing, err := updater.MissingBuilds(ctx, s.store, client, s.cfg.Build.BaseURL)
			if err != nil {
				return err
			}

			for _, rom := range missing {
				fmt.Fprintln(cmd.OutOrStdout(), rom.Filename)
				if !remove {
					continue
				}
				if _, err := s.store.DeleteRoms(ctx, rom.Filename); err != nil {
					return err
				}
				s.log.Info("Deleted missing rom '%s'", rom.Filename)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "delete", false, "delete the missing builds")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "timeout per request")

	return cmd
}
