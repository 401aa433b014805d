package admin

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mwantia/updater/pkg/db/store"
)

func NewDatabaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Metadata store schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, false)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.store.Migrate(ctx); err != nil {
				return err
			}
			s.log.Info("Metadata store is up to date")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, false)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := store.Migrator(s.store)
			if err != nil {
				return err
			}
			statuses, err := m.Status(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tDESCRIPTION\tAPPLIED")
			for _, st := range statuses {
				fmt.Fprintf(w, "%d\t%s\t%t\n", st.Version, st.Description, st.Applied)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Roll back the last applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, false)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := store.Migrator(s.store)
			if err != nil {
				return err
			}
			if err := m.Rollback(ctx); err != nil {
				return err
			}
			s.log.Info("Rolled back the last migration")
			return nil
		},
	})

	return cmd
}
