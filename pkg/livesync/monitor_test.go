package livesync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/postfiat-dev/pft-go/pkg/pftrpc"
	"github.com/postfiat-dev/pft-go/pkg/pftrpc/result"
	"github.com/stretchr/testify/require"
)

const testAccount = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"

type fakeSession struct {
	notifications chan pftrpc.Notification
	subErr        error
	closed        chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		notifications: make(chan pftrpc.Notification, 16),
		closed:        make(chan struct{}),
	}
}

func (s *fakeSession) SubscribeAccount(accounts ...string) error { return s.subErr }

func (s *fakeSession) AccountInfo(account string) (*result.AccountInfo, error) {
	res := new(result.AccountInfo)
	res.AccountData.Account = account
	res.AccountData.Sequence = 7
	return res, nil
}

func (s *fakeSession) Notifications() <-chan pftrpc.Notification { return s.notifications }

func (s *fakeSession) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
}

func newTestMonitor(t *testing.T, endpoints ...string) *Monitor {
	t.Helper()
	if len(endpoints) == 0 {
		endpoints = []string{"ws://one.example.org"}
	}
	m, err := NewMonitor(Config{
		Endpoints: endpoints,
		Account:   testAccount,
		Backoff:   time.Millisecond,
	})
	require.NoError(t, err)
	return m
}

func awaitTrigger(t *testing.T, m *Monitor) {
	t.Helper()
	select {
	case <-m.Trigger():
	case <-time.After(time.Second):
		t.Fatal("no sync trigger")
	}
}

func TestTriggerOnTransaction(t *testing.T) {
	m := newTestMonitor(t)
	sess := newFakeSession()
	m.dial = func(ctx context.Context, endpoint string) (session, error) {
		return sess, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// Connecting schedules one initial sync.
	awaitTrigger(t, m)

	sess.notifications <- pftrpc.Notification{Event: pftrpc.LedgerClosedEventID}
	sess.notifications <- pftrpc.Notification{Event: pftrpc.TransactionEventID}
	awaitTrigger(t, m)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	select {
	case <-sess.closed:
	case <-time.After(time.Second):
		t.Fatal("session not closed on shutdown")
	}
}

func TestFailoverRotatesEndpoints(t *testing.T) {
	m := newTestMonitor(t, "ws://one.example.org", "ws://two.example.org")

	dialed := make(chan string, 8)
	sess := newFakeSession()
	m.dial = func(ctx context.Context, endpoint string) (session, error) {
		dialed <- endpoint
		if endpoint == "ws://one.example.org" {
			return nil, errors.New("connection refused")
		}
		return sess, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	require.Equal(t, "ws://one.example.org", <-dialed)
	require.Equal(t, "ws://two.example.org", <-dialed)
	awaitTrigger(t, m)
}

func TestNotificationBurstDoesNotBlock(t *testing.T) {
	m := newTestMonitor(t)
	sess := newFakeSession()
	redialed := make(chan struct{}, 1)
	first := true
	m.dial = func(ctx context.Context, endpoint string) (session, error) {
		if first {
			first = false
			return sess, nil
		}
		redialed <- struct{}{}
		return nil, errors.New("down")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	// Nobody consumes the trigger channel here; the read loop must
	// still drain the stream and survive its closure.
	for i := 0; i < 50; i++ {
		sess.notifications <- pftrpc.Notification{Event: pftrpc.TransactionEventID}
	}
	close(sess.notifications)

	select {
	case <-redialed:
	case <-time.After(time.Second):
		t.Fatal("stream closure did not rotate the endpoint")
	}
}

func TestSubscribeFailureRotates(t *testing.T) {
	m := newTestMonitor(t)
	bad := newFakeSession()
	bad.subErr = errors.New("subscribe refused")
	good := newFakeSession()
	calls := 0
	m.dial = func(ctx context.Context, endpoint string) (session, error) {
		calls++
		if calls == 1 {
			return bad, nil
		}
		return good, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	awaitTrigger(t, m)
	require.Equal(t, 2, calls)
	select {
	case <-bad.closed:
	default:
		t.Fatal("failed session left open")
	}
}

func TestNewMonitorRequiresEndpoints(t *testing.T) {
	_, err := NewMonitor(Config{Account: testAccount})
	require.Error(t, err)
}

// TestRunAgainstWSServer drives the real websocket dial path against a
// local server speaking the subscription protocol.
func TestRunAgainstWSServer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		// Subscribe call.
		var req pftrpc.Request
		require.NoError(t, ws.ReadJSON(&req))
		require.Equal(t, "subscribe", req.Method)
		require.NoError(t, ws.WriteJSON(map[string]interface{}{
			"id": req.ID, "jsonrpc": "2.0", "result": map[string]interface{}{},
		}))

		// Account state request.
		require.NoError(t, ws.ReadJSON(&req))
		require.Equal(t, "account_info", req.Method)
		require.NoError(t, ws.WriteJSON(map[string]interface{}{
			"id": req.ID, "jsonrpc": "2.0",
			"result": map[string]interface{}{
				"account_data": map[string]interface{}{
					"Account": testAccount, "Balance": "1000", "Sequence": 7,
				},
			},
		}))

		// One validated transaction notification.
		require.NoError(t, ws.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0", "method": "transaction",
			"params": map[string]interface{}{},
		}))

		// Hold the connection until the client hangs up.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	m, err := NewMonitor(Config{
		Endpoints:   []string{"ws" + strings.TrimPrefix(srv.URL, "http")},
		Account:     testAccount,
		DialTimeout: time.Second,
		Backoff:     time.Millisecond,
		TriggerCap:  4,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// Initial trigger on connect, then one for the pushed transaction.
	awaitTrigger(t, m)
	awaitTrigger(t, m)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
