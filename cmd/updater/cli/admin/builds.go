package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwantia/updater/pkg/db/models"
)

// buildFlags are the artifact fields shared by `rom add` and `inc add`.
type buildFlags struct {
	filename string
	device   string
	version  string
	datetime string
	romType  string
	md5sum   string
	size     int64
	url      string
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.filename, "filename", "f", "", "file name of the build")
	cmd.Flags().StringVarP(&f.device, "device", "d", "", "device codename")
	cmd.Flags().StringVar(&f.version, "version", "", "build version")
	cmd.Flags().StringVarP(&f.datetime, "datetime", "t", "", "build time (unix seconds, RFC 3339 or 'YYYY-MM-DD HH:MM:SS')")
	cmd.Flags().StringVarP(&f.romType, "romtype", "r", "", "build type")
	cmd.Flags().StringVarP(&f.md5sum, "md5sum", "m", "", "md5 checksum of the file")
	cmd.Flags().Int64VarP(&f.size, "size", "s", 0, "file size in bytes")
	cmd.Flags().StringVarP(&f.url, "url", "u", "", "download url")

	for _, name := range []string{"filename", "device", "version", "datetime", "romtype", "md5sum", "size", "url"} {
		cmd.MarkFlagRequired(name)
	}
}

func (f *buildFlags) artifact() (models.Artifact, error) {
	createdAt, err := parseTimestamp(f.datetime)
	if err != nil {
		return models.Artifact{}, err
	}
	return models.Artifact{
		Filename:  f.filename,
		Device:    f.device,
		Version:   f.version,
		RomType:   f.romType,
		MD5Sum:    f.md5sum,
		URL:       f.url,
		Size:      f.size,
		CreatedAt: createdAt,
	}, nil
}

func NewRomCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rom",
		Short: "Manage full builds",
	}

	cmd.AddCommand(newRomAddCommand())
	cmd.AddCommand(newDeleteCommand("full build", func(ctx context.Context, s *session, filename string) (int64, error) {
		return s.store.DeleteRoms(ctx, filename)
	}))

	return cmd
}

func newRomAddCommand() *cobra.Command {
	var (
		flags     buildFlags
		bootImage bool
		sticky    bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a full build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact, err := flags.artifact()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := openSession(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			rom := &models.Rom{Artifact: artifact, HasBootImage: bootImage, Sticky: sticky}
			if err := s.store.CreateRom(ctx, rom); err != nil {
				return err
			}

			s.log.Info("Added rom '%s' for device '%s' (%s)", rom.Filename, rom.Device, rom.Version)
			fmt.Fprintln(cmd.OutOrStdout(), rom.ID)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&bootImage, "hasbootimg", false, "the build ships a boot image")
	cmd.Flags().BoolVarP(&sticky, "sticky", "k", false, "pin the build")

	return cmd
}

func NewIncrementalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inc",
		Aliases: []string{"incremental"},
		Short:   "Manage incremental builds",
	}

	cmd.AddCommand(newIncrementalAddCommand())
	cmd.AddCommand(newDeleteCommand("incremental", func(ctx context.Context, s *session, filename string) (int64, error) {
		return s.store.DeleteIncrementals(ctx, filename)
	}))

	return cmd
}

func newIncrementalAddCommand() *cobra.Command {
	var (
		flags buildFlags
		from  string
		to    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish an incremental build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact, err := flags.artifact()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := openSession(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			inc := &models.Incremental{Artifact: artifact, FromVersion: from, ToVersion: to}
			if err := s.store.CreateIncremental(ctx, inc); err != nil {
				return err
			}

			s.log.Info("Added incremental '%s' for device '%s' (%s -> %s)", inc.Filename, inc.Device, from, to)
			fmt.Fprintln(cmd.OutOrStdout(), inc.ID)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&from, "from_incremental", "a", "", "incremental version the update applies to")
	cmd.Flags().StringVarP(&to, "to_incremental", "b", "", "incremental version the update produces")
	cmd.MarkFlagRequired("from_incremental")
	cmd.MarkFlagRequired("to_incremental")

	return cmd
}

func newDeleteCommand(kind string, del func(ctx context.Context, s *session, filename string) (int64, error)) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "del",
		Short: fmt.Sprintf("Delete every %s with the given file name", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := del(ctx, s, filename)
			if err != nil {
				return err
			}

			s.log.Info("Deleted %d %s(s) named '%s'", n, kind, filename)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filename, "filename", "f", "", "file name to delete")
	cmd.MarkFlagRequired("filename")

	return cmd
}
