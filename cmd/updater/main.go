package main

import (
	"fmt"
	"os"

	"github.com/mwantia/updater/cmd/updater/cli"
	"github.com/mwantia/updater/cmd/updater/cli/admin"
	"github.com/mwantia/updater/cmd/updater/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewVersionCommand())

	root.AddCommand(server.NewServeCommand())
	root.AddCommand(server.NewConfigCommand())

	root.AddCommand(admin.NewRomCommand())
	root.AddCommand(admin.NewIncrementalCommand())
	root.AddCommand(admin.NewApiKeyCommand())
	root.AddCommand(admin.NewDevicesCommand())
	root.AddCommand(admin.NewBuildsCommand())
	root.AddCommand(admin.NewDatabaseCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
