package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/postfiat-dev/pft-go/cli/node"
	"github.com/postfiat-dev/pft-go/cli/tasks"
	"github.com/postfiat-dev/pft-go/cli/wallet"
	"github.com/postfiat-dev/pft-go/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "pft-go\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a pft-go instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "pft-go"
	ctl.Version = config.Version
	ctl.Usage = "Go client for the Post Fiat task protocol"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, node.NewCommands()...)
	ctl.Commands = append(ctl.Commands, tasks.NewCommands()...)
	ctl.Commands = append(ctl.Commands, wallet.NewCommands()...)
	return ctl
}
