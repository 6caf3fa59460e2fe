/*
Package node implements the synchronization commands: the one-shot
history sync and the long-running live monitor.
*/
package node

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/postfiat-dev/pft-go/cli/options"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// resyncInterval is the fallback polling period of the monitor, live
// notifications usually trigger syncs well before it fires.
const resyncInterval = 5 * time.Minute

// NewCommands returns the 'sync' and 'monitor' commands.
func NewCommands() []cli.Command {
	return []cli.Command{
		{
			Name:   "sync",
			Usage:  "fetch new transactions into the local cache",
			Action: syncOnce,
			Flags:  options.Config,
		},
		{
			Name:   "monitor",
			Usage:  "run the live ledger monitor, syncing on account activity",
			Action: monitor,
			Flags:  options.Config,
		},
	}
}

func syncOnce(ctx *cli.Context) error {
	cfg, exitErr := options.GetConfig(ctx)
	if exitErr != nil {
		return exitErr
	}
	log, exitErr := options.GetLogger(cfg)
	if exitErr != nil {
		return exitErr
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, exitErr := options.GetRPCClient(gctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	m, exitErr := options.GetManager(cfg, c, log)
	if exitErr != nil {
		return exitErr
	}
	defer m.Close()

	res, err := m.Sync()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Synced %d new transactions (%d pages, ledger %d).\n",
		res.New, res.Pages, res.LastLedgerIndex)
	return nil
}

func monitor(ctx *cli.Context) error {
	cfg, exitErr := options.GetConfig(ctx)
	if exitErr != nil {
		return exitErr
	}
	log, exitErr := options.GetLogger(cfg)
	if exitErr != nil {
		return exitErr
	}
	c, exitErr := options.GetRPCClient(context.Background(), cfg)
	if exitErr != nil {
		return exitErr
	}
	m, exitErr := options.GetManager(cfg, c, log)
	if exitErr != nil {
		return exitErr
	}
	defer m.Close()
	mon, exitErr := options.GetMonitor(cfg, log)
	if exitErr != nil {
		return exitErr
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		s := <-sigCh
		log.Info("shutting down", zap.Stringer("signal", s))
		cancel()
	}()

	if cfg.Prometheus.Enabled {
		srv := &http.Server{Addr: cfg.Prometheus.Address, Handler: promhttp.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics service failed", zap.Error(err))
			}
		}()
		defer srv.Close()
		log.Info("metrics service running", zap.String("address", cfg.Prometheus.Address))
	}

	monDone := make(chan error, 1)
	go func() { monDone <- mon.Run(runCtx) }()

	if _, err := m.Sync(); err != nil {
		log.Error("initial sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(resyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-runCtx.Done():
			<-monDone
			return nil
		case <-mon.Trigger():
		case <-ticker.C:
		}
		if res, err := m.Sync(); err != nil {
			log.Error("sync failed", zap.Error(err))
		} else if res.New > 0 {
			log.Info("activity", zap.Int("new", res.New))
		}
	}
}
