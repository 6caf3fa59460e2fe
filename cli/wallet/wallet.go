/*
Package wallet implements the account-level commands: balances, the
trust line, the genesis handshake, the context document link and
pomodoro logs.
*/
package wallet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/postfiat-dev/pft-go/cli/options"
	"github.com/postfiat-dev/pft-go/pkg/rpcclient"
	"github.com/postfiat-dev/pft-go/pkg/syncmgr"
	"github.com/postfiat-dev/pft-go/pkg/taskmgr"
	"github.com/urfave/cli"
)

// NewCommands returns the 'wallet' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "wallet",
		Usage: "account and handshake operations",
		Subcommands: []cli.Command{
			{
				Name:   "balance",
				Usage:  "show native and token balances",
				Action: balance,
				Flags:  options.Config,
			},
			{
				Name:   "holders",
				Usage:  "list accounts holding the token, largest first",
				Action: holders,
				Flags:  options.Config,
			},
			{
				Name:   "status",
				Usage:  "show the account's task protocol status",
				Action: status,
				Flags:  options.Config,
			},
			{
				Name:   "trustline",
				Usage:  "establish the token trust line if it's missing",
				Action: trustline,
				Flags:  options.Config,
			},
			{
				Name:   "genesis",
				Usage:  "send the one-time handshake to the node",
				Action: genesis,
				Flags:  options.Config,
			},
			{
				Name:      "context-doc",
				Usage:     "publish the context document link",
				ArgsUsage: "<url>",
				Action:    contextDoc,
				Flags:     options.Config,
			},
			{
				Name:      "pomodoro",
				Usage:     "attach a work log entry to a task",
				ArgsUsage: "<task-id> <note>",
				Action:    pomodoro,
				Flags:     options.Config,
			},
		},
	}}
}

func balance(ctx *cli.Context) error {
	cfg, exitErr := options.GetConfig(ctx)
	if exitErr != nil {
		return exitErr
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, exitErr := options.GetRPCClient(gctx, cfg)
	if exitErr != nil {
		return exitErr
	}

	info, err := c.AccountInfo(cfg.Account.Address)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	tokens, err := c.TokenBalance(cfg.Account.Address, cfg.Token.Currency, cfg.Token.Issuer)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Account: %s\nXRP (drops): %s\n%s: %g\n",
		cfg.Account.Address, info.AccountData.Balance, cfg.Token.Currency, tokens)
	return nil
}

func holders(ctx *cli.Context) error {
	cfg, exitErr := options.GetConfig(ctx)
	if exitErr != nil {
		return exitErr
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, exitErr := options.GetRPCClient(gctx, cfg)
	if exitErr != nil {
		return exitErr
	}

	hs, err := c.TokenHolders(cfg.Token.Issuer, cfg.Token.Currency)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i].Balance > hs[j].Balance })

	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = tw.Write([]byte("Account\tBalance\n"))
	for _, h := range hs {
		_, _ = tw.Write([]byte(fmt.Sprintf("%s\t%g\n", h.Account, h.Balance)))
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
	return nil
}

// setup builds the synced manager and dispatcher the stateful wallet
// commands start from. The caller owns gctx and must keep it alive for
// as long as it uses the returned manager and dispatcher.
func setup(gctx context.Context, ctx *cli.Context) (*syncmgr.Manager, *taskmgr.Dispatcher, *rpcclient.Client, error) {
	cfg, exitErr := options.GetConfig(ctx)
	if exitErr != nil {
		return nil, nil, nil, exitErr
	}
	log, exitErr := options.GetLogger(cfg)
	if exitErr != nil {
		return nil, nil, nil, exitErr
	}
	c, exitErr := options.GetRPCClient(gctx, cfg)
	if exitErr != nil {
		return nil, nil, nil, exitErr
	}
	m, exitErr := options.GetManager(cfg, c, log)
	if exitErr != nil {
		return nil, nil, nil, exitErr
	}
	if _, err := m.Sync(); err != nil {
		_ = m.Close()
		return nil, nil, nil, cli.NewExitError(fmt.Errorf("sync failed: %w", err), 1)
	}
	d, exitErr := options.GetDispatcher(cfg, c, m, log)
	if exitErr != nil {
		_ = m.Close()
		return nil, nil, nil, exitErr
	}
	return m, d, c, nil
}

func status(ctx *cli.Context) error {
	cfg, exitErr := options.GetConfig(ctx)
	if exitErr != nil {
		return exitErr
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	m, _, _, err := setup(gctx, ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	fmt.Fprintln(ctx.App.Writer, taskmgr.StatusLine(m.State(), cfg.Account.Node))
	return nil
}

func trustline(ctx *cli.Context) error {
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	m, d, _, err := setup(gctx, ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := d.EnsureTrustLine(); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, "Trust line in place.")
	return nil
}

func genesis(ctx *cli.Context) error {
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	m, d, _, err := setup(gctx, ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	rcpt, err := d.SendGenesis()
	if errors.Is(err, taskmgr.ErrGenesisSent) {
		fmt.Fprintln(ctx.App.Writer, "Genesis handshake already sent.")
		return nil
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Genesis handshake submitted: %s\n", rcpt.Hashes[0])
	return nil
}

func contextDoc(ctx *cli.Context) error {
	if len(ctx.Args()) == 0 {
		return cli.NewExitError("document URL is missing", 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	m, d, _, err := setup(gctx, ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	rcpt, err := d.SendContextDoc(ctx.Args()[0])
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Context document published: %s\n", rcpt.Hashes[0])
	return nil
}

func pomodoro(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 2 {
		return cli.NewExitError("task identifier and note are required", 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	m, d, _, err := setup(gctx, ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	rcpt, err := d.LogPomodoro(args[0], args[1])
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Logged: %s\n", rcpt.Hashes[0])
	return nil
}
