/*
Package tasks implements the task lifecycle commands: listing the
reduced views and submitting accept/refuse/complete/respond/request
actions.
*/
package tasks

import (
	"bytes"
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/postfiat-dev/pft-go/cli/options"
	"github.com/postfiat-dev/pft-go/pkg/syncmgr"
	"github.com/postfiat-dev/pft-go/pkg/taskmgr"
	"github.com/urfave/cli"
)

// NewCommands returns the 'task' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "task",
		Usage: "inspect and act on tasks",
		Subcommands: []cli.Command{
			{
				Name:   "list",
				Usage:  "list outstanding tasks",
				Action: listOutstanding,
				Flags:  options.Config,
			},
			{
				Name:   "verifications",
				Usage:  "list tasks awaiting a verification response",
				Action: listVerifications,
				Flags:  options.Config,
			},
			{
				Name:   "rewards",
				Usage:  "list recently rewarded tasks",
				Action: listRewards,
				Flags:  options.Config,
			},
			{
				Name:      "show",
				Usage:     "show the full event history of a task",
				ArgsUsage: "<task-id>",
				Action:    showTask,
				Flags:     options.Config,
			},
			{
				Name:      "accept",
				Usage:     "accept a proposed task",
				ArgsUsage: "<task-id> <reason>",
				Action:    action((*taskmgr.Dispatcher).Accept),
				Flags:     options.Config,
			},
			{
				Name:      "refuse",
				Usage:     "refuse a proposed task",
				ArgsUsage: "<task-id> <reason>",
				Action:    action((*taskmgr.Dispatcher).Refuse),
				Flags:     options.Config,
			},
			{
				Name:      "complete",
				Usage:     "submit an accepted task for verification",
				ArgsUsage: "<task-id> <justification>",
				Action:    action((*taskmgr.Dispatcher).Complete),
				Flags:     options.Config,
			},
			{
				Name:      "respond",
				Usage:     "answer an open verification prompt",
				ArgsUsage: "<task-id> <response>",
				Action:    action((*taskmgr.Dispatcher).RespondVerification),
				Flags:     options.Config,
			},
			{
				Name:      "request",
				Usage:     "ask the node for new work",
				ArgsUsage: "<request>",
				Action:    requestTask,
				Flags:     options.Config,
			},
		},
	}}
}

// setup builds the synced manager and dispatcher every task command
// starts from. The caller owns gctx and must keep it alive for as long
// as it uses the returned manager and dispatcher.
func setup(gctx context.Context, ctx *cli.Context) (*syncmgr.Manager, *taskmgr.Dispatcher, error) {
	cfg, exitErr := options.GetConfig(ctx)
	if exitErr != nil {
		return nil, nil, exitErr
	}
	log, exitErr := options.GetLogger(cfg)
	if exitErr != nil {
		return nil, nil, exitErr
	}
	c, exitErr := options.GetRPCClient(gctx, cfg)
	if exitErr != nil {
		return nil, nil, exitErr
	}
	m, exitErr := options.GetManager(cfg, c, log)
	if exitErr != nil {
		return nil, nil, exitErr
	}
	if _, err := m.Sync(); err != nil {
		_ = m.Close()
		return nil, nil, cli.NewExitError(fmt.Errorf("sync failed: %w", err), 1)
	}
	d, exitErr := options.GetDispatcher(cfg, c, m, log)
	if exitErr != nil {
		_ = m.Close()
		return nil, nil, exitErr
	}
	return m, d, nil
}

func listOutstanding(ctx *cli.Context) error {
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	m, _, err := setup(gctx, ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = tw.Write([]byte("ID\tProposal\tResponse\n"))
	for _, o := range m.ListOutstanding() {
		_, _ = tw.Write([]byte(fmt.Sprintf("%s\t%s\t%s\n", o.ID, o.Proposal, o.Response)))
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
	return nil
}

func listVerifications(ctx *cli.Context) error {
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	m, _, err := setup(gctx, ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = tw.Write([]byte("ID\tProposal\tPrompt\n"))
	for _, v := range m.ListPendingVerifications() {
		_, _ = tw.Write([]byte(fmt.Sprintf("%s\t%s\t%s\n", v.ID, v.Proposal, v.Prompt)))
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
	return nil
}

func listRewards(ctx *cli.Context) error {
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	m, _, err := setup(gctx, ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = tw.Write([]byte("ID\tReward\tPayout\n"))
	for _, r := range m.ListRewards() {
		_, _ = tw.Write([]byte(fmt.Sprintf("%s\t%s\t%g\n", r.ID, r.Reward, r.Payout)))
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
	return nil
}

func showTask(ctx *cli.Context) error {
	if len(ctx.Args()) == 0 {
		return cli.NewExitError("task identifier is missing", 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	m, _, err := setup(gctx, ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	t, ok := m.GetTask(ctx.Args()[0])
	if !ok {
		return cli.NewExitError(taskmgr.ErrNoTask, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Task: %s\nNode: %s\nState: %s\n", t.ID, t.Node, t.LatestKind())
	for _, ev := range t.Events {
		fmt.Fprintf(ctx.App.Writer, "  %d %s %-9s %s\n",
			ev.LedgerIndex, ev.Direction, ev.Kind, ev.Payload)
	}
	return nil
}

// action adapts a two-argument dispatcher method into a CLI action.
func action(f func(*taskmgr.Dispatcher, string, string) (*taskmgr.Receipt, error)) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		args := ctx.Args()
		if len(args) < 2 {
			return cli.NewExitError("task identifier and text are required", 1)
		}
		gctx, cancel := options.GetTimeoutContext(ctx)
		defer cancel()
		m, d, err := setup(gctx, ctx)
		if err != nil {
			return err
		}
		defer m.Close()

		rcpt, err := f(d, args[0], args[1])
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		printReceipt(ctx, rcpt)
		return nil
	}
}

func requestTask(ctx *cli.Context) error {
	if len(ctx.Args()) == 0 {
		return cli.NewExitError("request text is missing", 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	m, d, err := setup(gctx, ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	rcpt, err := d.RequestTask("", ctx.Args()[0])
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	printReceipt(ctx, rcpt)
	return nil
}

func printReceipt(ctx *cli.Context, rcpt *taskmgr.Receipt) {
	fmt.Fprintf(ctx.App.Writer, "Task: %s\n", rcpt.TaskID)
	for _, h := range rcpt.Hashes {
		fmt.Fprintf(ctx.App.Writer, "Submitted: %s\n", h)
	}
}
