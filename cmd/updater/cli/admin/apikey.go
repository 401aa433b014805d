package admin

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mwantia/updater/pkg/db/models"
)

func NewApiKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage keys for the privileged API",
	}

	cmd.AddCommand(newApiKeyCreateCommand())
	cmd.AddCommand(newApiKeyListCommand())
	cmd.AddCommand(newApiKeyRevokeCommand())

	return cmd
}

// newKey returns a random 32 character hex key.
func newKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func newApiKeyCreateCommand() *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a key and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			key := &models.ApiKey{Key: newKey(), Comment: comment}
			if err := s.store.CreateApiKey(ctx, key); err != nil {
				return err
			}

			s.log.Info("Created api key for '%s'", comment)
			fmt.Fprintln(cmd.OutOrStdout(), key.Key)
			return nil
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "who or what the key is for")
	cmd.MarkFlagRequired("comment")

	return cmd
}

func newApiKeyListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			keys, err := s.store.ListApiKeys(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tCOMMENT\tCREATED")
			for _, k := range keys {
				fmt.Fprintf(w, "%s\t%s\t%s\n", k.Key, k.Comment, k.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func newApiKeyRevokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key>",
		Short: "Revoke a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.store.DeleteApiKey(ctx, args[0])
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("api key not found")
			}

			s.log.Info("Revoked api key")
			return nil
		},
	}
}
