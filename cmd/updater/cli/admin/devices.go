package admin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwantia/updater/internal/updater"
)

func NewDevicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage the device catalog",
	}

	cmd.AddCommand(newDevicesImportCommand())

	return cmd
}

func newDevicesImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import the device catalog feeds",
		Long: `Import the device catalog from devices.file and, if present,
devices.local_file. Devices are matched by model; entries of the local
feed override the base feed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			feeds := []struct {
				path     string
				optional bool
			}{
				{s.cfg.Devices.File, false},
				{s.cfg.Devices.LocalFile, true},
			}

			for _, feed := range feeds {
				if feed.path == "" {
					continue
				}

				f, err := os.Open(feed.path)
				if err != nil {
					if feed.optional && errors.Is(err, fs.ErrNotExist) {
						s.log.Debug("Skipping missing feed '%s'", feed.path)
						continue
					}
					return fmt.Errorf("failed to open devices feed: %w", err)
				}

				n, err := updater.ImportDevices(ctx, s.store, f)
				f.Close()
				if err != nil {
					return fmt.Errorf("failed to import '%s': %w", feed.path, err)
				}
				s.log.Info("Imported %d device(s) from '%s'", n, feed.path)
			}
			return nil
		},
	}
}
