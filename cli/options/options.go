/*
Package options contains a set of common CLI options and helper
functions to use them.
*/
package options

import (
	"context"
	"time"

	"github.com/postfiat-dev/pft-go/pkg/config"
	"github.com/postfiat-dev/pft-go/pkg/livesync"
	"github.com/postfiat-dev/pft-go/pkg/rpcclient"
	"github.com/postfiat-dev/pft-go/pkg/syncmgr"
	"github.com/postfiat-dev/pft-go/pkg/taskmgr"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeout is the default timeout used for RPC requests.
const DefaultTimeout = 10 * time.Second

// ConfigFileFlag is a long flag name for the configuration file path.
const ConfigFileFlag = "config-file"

// Config is a set of flags for locating and overriding the
// configuration.
var Config = []cli.Flag{
	cli.StringFlag{
		Name:  ConfigFileFlag + ", c",
		Usage: "path to the YAML configuration file",
		Value: "./config.yml",
	},
	cli.StringFlag{
		Name:  "rpc-endpoint, r",
		Usage: "RPC gateway address overriding the configured one",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Usage: "timeout for the operation",
		Value: DefaultTimeout,
	},
}

// GetConfig loads the configuration named by the flags and applies flag
// overrides to it.
func GetConfig(ctx *cli.Context) (config.Config, cli.ExitCoder) {
	cfg, err := config.Load(ctx.String(ConfigFileFlag))
	if err != nil {
		return config.Config{}, cli.NewExitError(err, 1)
	}
	if ep := ctx.String("rpc-endpoint"); ep != "" {
		cfg.RPC.Endpoint = ep
	}
	return cfg, nil
}

// GetLogger builds a production logger at the configured level.
func GetLogger(cfg config.Config) (*zap.Logger, cli.ExitCoder) {
	level := zapcore.InfoLevel
	if cfg.Logger.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(cfg.Logger.Level); err != nil {
			return nil, cli.NewExitError(err, 1)
		}
	}
	cc := zap.NewProductionConfig()
	cc.Level = zap.NewAtomicLevelAt(level)
	log, err := cc.Build()
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return log, nil
}

// GetTimeoutContext returns a context deadlined by the timeout flag.
func GetTimeoutContext(ctx *cli.Context) (context.Context, context.CancelFunc) {
	timeout := ctx.Duration("timeout")
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// GetRPCClient connects an RPC client to the configured gateway.
func GetRPCClient(gctx context.Context, cfg config.Config) (*rpcclient.Client, cli.ExitCoder) {
	c, err := rpcclient.New(gctx, cfg.RPC.Endpoint, rpcclient.Options{
		DialTimeout:    cfg.RPC.DialTimeout,
		RequestTimeout: cfg.RPC.RequestTimeout,
	})
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return c, nil
}

// GetManager opens the transaction cache and returns the sync manager
// over the given client.
func GetManager(cfg config.Config, client syncmgr.Fetcher, log *zap.Logger) (*syncmgr.Manager, cli.ExitCoder) {
	m, err := syncmgr.NewManager(syncmgr.Config{
		Account:       cfg.Account.Address,
		TokenCurrency: cfg.Token.Currency,
		TokenIssuer:   cfg.Token.Issuer,
		PageLimit:     cfg.Sync.PageLimit,
		MaxPages:      cfg.Sync.MaxPages,
		RetryAttempts: cfg.Sync.RetryAttempts,
		RetryDelay:    cfg.Sync.RetryDelay,
		DB:            cfg.DB,
		Log:           log,
	}, client)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return m, nil
}

// GetDispatcher returns the task action dispatcher wired to the given
// gateway and state source.
func GetDispatcher(cfg config.Config, client taskmgr.Submitter, state taskmgr.StateSource, log *zap.Logger) (*taskmgr.Dispatcher, cli.ExitCoder) {
	d, err := taskmgr.New(taskmgr.Config{
		Account:       cfg.Account.Address,
		User:          cfg.Account.User,
		Node:          cfg.Account.Node,
		TokenCurrency: cfg.Token.Currency,
		TokenIssuer:   cfg.Token.Issuer,
		TrustLimit:    cfg.Token.TrustLimit,
		Log:           log,
	}, client, state)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return d, nil
}

// GetMonitor returns the live subscription monitor over the configured
// websocket pool.
func GetMonitor(cfg config.Config, log *zap.Logger) (*livesync.Monitor, cli.ExitCoder) {
	m, err := livesync.NewMonitor(livesync.Config{
		Endpoints:   cfg.RPC.WSEndpoints,
		Account:     cfg.Account.Address,
		DialTimeout: cfg.RPC.DialTimeout,
		Backoff:     cfg.Monitor.Backoff,
		TriggerCap:  cfg.Monitor.TriggerCap,
		Log:         log,
	})
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return m, nil
}
