/*
Package livesync holds a persistent ledger event subscription against
one endpoint from a fixed pool and turns incoming transaction
notifications into sync triggers. Notifications only ever schedule a
sync, they never perform one inline, so a slow synchronization can't
back up the network read loop.
*/
package livesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/postfiat-dev/pft-go/pkg/pftrpc"
	"github.com/postfiat-dev/pft-go/pkg/pftrpc/result"
	"github.com/postfiat-dev/pft-go/pkg/rpcclient"
	"go.uber.org/zap"
)

const (
	defaultBackoff    = 5 * time.Second
	defaultTriggerCap = 1
)

// session is a single live subscription connection. *rpcclient.WSClient
// satisfies it through wsSession; tests substitute their own.
type session interface {
	SubscribeAccount(accounts ...string) error
	AccountInfo(account string) (*result.AccountInfo, error)
	Notifications() <-chan pftrpc.Notification
	Close()
}

type wsSession struct {
	*rpcclient.WSClient
}

func (s wsSession) Notifications() <-chan pftrpc.Notification {
	return s.WSClient.Notifications
}

// Config holds the monitor settings.
type Config struct {
	// Endpoints is the websocket endpoint pool rotated through on
	// connection failure. At least one is required.
	Endpoints []string
	// Account is the account whose transactions are subscribed to.
	Account string
	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration
	// Backoff is the delay before trying the next endpoint.
	Backoff time.Duration
	// TriggerCap bounds the trigger channel. A single pending trigger
	// is enough, a sync picks up everything that accumulated.
	TriggerCap int
	// Log defaults to zap.NewNop when unset.
	Log *zap.Logger
}

// Monitor supervises the live subscription loop.
type Monitor struct {
	Config

	log     *zap.Logger
	trigger chan struct{}

	// dial is replaced in tests.
	dial func(ctx context.Context, endpoint string) (session, error)
}

// NewMonitor returns a Monitor ready to Run.
func NewMonitor(cfg Config) (*Monitor, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, errors.New("no subscription endpoints configured")
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.TriggerCap <= 0 {
		cfg.TriggerCap = defaultTriggerCap
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	m := &Monitor{
		Config:  cfg,
		log:     cfg.Log,
		trigger: make(chan struct{}, cfg.TriggerCap),
	}
	m.dial = m.dialWS
	return m, nil
}

func (m *Monitor) dialWS(ctx context.Context, endpoint string) (session, error) {
	c, err := rpcclient.NewWS(ctx, endpoint, rpcclient.Options{DialTimeout: m.DialTimeout})
	if err != nil {
		return nil, err
	}
	return wsSession{c}, nil
}

// Trigger returns the channel a sync driver consumes. One receive may
// stand for any number of coalesced notifications.
func (m *Monitor) Trigger() <-chan struct{} {
	return m.trigger
}

// Run rotates through the endpoint pool keeping one subscription alive
// until the context is cancelled. It always returns the context's
// error; individual connection failures are logged, counted and
// retried, never returned.
func (m *Monitor) Run(ctx context.Context) error {
	next := 0
	for {
		endpoint := m.Endpoints[next%len(m.Endpoints)]
		next++

		if err := m.serve(ctx, endpoint); err != nil {
			m.log.Warn("live subscription lost",
				zap.String("endpoint", endpoint), zap.Error(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		failoverCnt.Inc()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.Backoff):
		}
	}
}

// serve connects to one endpoint, subscribes and consumes notifications
// until the stream ends or the context is cancelled.
func (m *Monitor) serve(ctx context.Context, endpoint string) error {
	sess, err := m.dial(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer sess.Close()

	if err := sess.SubscribeAccount(m.Account); err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}

	// One state request on connect, the stream carries only deltas.
	info, err := sess.AccountInfo(m.Account)
	if err != nil {
		return fmt.Errorf("querying account state: %w", err)
	}
	subscriptionUp.Set(1)
	defer subscriptionUp.Set(0)
	m.log.Info("live subscription established",
		zap.String("endpoint", endpoint),
		zap.Uint32("sequence", info.AccountData.Sequence))
	m.notify()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-sess.Notifications():
			if !ok {
				return errors.New("notification stream closed")
			}
			if n.Event != pftrpc.TransactionEventID {
				continue
			}
			notificationCnt.Inc()
			m.notify()
		}
	}
}

// notify schedules a sync without blocking. A full channel means one is
// already pending and will cover this notification too.
func (m *Monitor) notify() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}
