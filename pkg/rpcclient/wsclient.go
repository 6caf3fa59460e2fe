package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/postfiat-dev/pft-go/pkg/pftrpc"
)

// WSClient is a websocket-enabled RPC client that can be used with
// appropriate servers. It's supposed to be faster than Client because it
// has a persistent connection to the server and at the same time it
// exposes some functionality that is only provided via websockets (like
// the event subscription mechanism).
type WSClient struct {
	Client
	// Notifications receives ledger events the server pushes for active
	// subscriptions. It's closed when the connection is lost.
	Notifications chan pftrpc.Notification

	ws        *websocket.Conn
	done      chan struct{}
	responses chan *pftrpc.Response
	requests  chan *pftrpc.Request
	shutdown  chan struct{}
}

// requestResponse is a combined type for request and response since we
// can get any of them here.
type requestResponse struct {
	pftrpc.HeaderAndError
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

const (
	// Message limit for receiving side.
	wsReadLimit = 10 * 1024 * 1024

	// Disconnection timeout.
	wsPongLimit = 60 * time.Second

	// Ping period for connection liveness check.
	wsPingPeriod = wsPongLimit / 2

	// Write deadline.
	wsWriteLimit = wsPingPeriod / 2
)

// NewWS returns a new WSClient ready to use (with established websocket
// connection). You need to use a websocket URL for it like
// `wss://1.2.3.4/`.
func NewWS(ctx context.Context, endpoint string, opts Options) (*WSClient, error) {
	cl, err := New(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	cl.cli = nil

	dialer := websocket.Dialer{HandshakeTimeout: cl.opts.DialTimeout}
	ws, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	wsc := &WSClient{
		Client:        *cl,
		Notifications: make(chan pftrpc.Notification, 16),
		ws:            ws,
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
		responses:     make(chan *pftrpc.Response),
		requests:      make(chan *pftrpc.Request),
	}
	go wsc.wsReader()
	go wsc.wsWriter()
	wsc.requestF = wsc.makeWsRequest
	return wsc, nil
}

// Close closes the connection to the remote side rendering this client
// instance unusable.
func (c *WSClient) Close() {
	// Closing the shutdown channel sends a signal to wsWriter to break
	// out of the loop. In doing so it does ws.Close() closing the network
	// connection which in turn makes wsReader receive an err from
	// ws.ReadJSON() and also break out of the loop closing the c.done
	// channel in its shutdown sequence.
	close(c.shutdown)
	<-c.done
}

// Done is closed when the connection is lost or shut down.
func (c *WSClient) Done() <-chan struct{} {
	return c.done
}

func (c *WSClient) wsReader() {
	c.ws.SetReadLimit(wsReadLimit)
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(wsPongLimit)) })
readloop:
	for {
		rr := new(requestResponse)
		_ = c.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
		err := c.ws.ReadJSON(rr)
		if err != nil {
			// Timeout/connection loss/malformed response.
			break
		}
		if rr.ID == nil && rr.Method != "" {
			ntf := pftrpc.Notification{
				JSONRPC: rr.JSONRPC,
				Event:   pftrpc.EventID(rr.Method),
				Payload: rr.Params,
			}
			// The consumer may have stopped draining, Close() must
			// still be able to finish.
			select {
			case c.Notifications <- ntf:
			case <-c.shutdown:
				break readloop
			}
		} else if rr.ID != nil && (rr.Error != nil || rr.Result != nil) {
			resp := new(pftrpc.Response)
			resp.ID = rr.ID
			resp.JSONRPC = rr.JSONRPC
			resp.Error = rr.Error
			resp.Result = rr.Result
			select {
			case c.responses <- resp:
			case <-c.shutdown:
				break readloop
			}
		} else {
			// Malformed response, neither valid request, nor valid response.
			break
		}
	}
	close(c.done)
	close(c.responses)
	close(c.Notifications)
}

func (c *WSClient) wsWriter() {
	pingTicker := time.NewTicker(wsPingPeriod)
	defer c.ws.Close()
	defer pingTicker.Stop()
	for {
		select {
		case <-c.shutdown:
			return
		case <-c.done:
			return
		case req, ok := <-c.requests:
			if !ok {
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.RequestTimeout))
			if err := c.ws.WriteJSON(req); err != nil {
				return
			}
		case <-pingTicker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteLimit))
			if err := c.ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) makeWsRequest(r *pftrpc.Request) (*pftrpc.Response, error) {
	select {
	case <-c.done:
		return nil, errors.New("connection lost")
	case c.requests <- r:
	}
	select {
	case <-c.done:
		return nil, errors.New("connection lost")
	case resp := <-c.responses:
		return resp, nil
	}
}

// SubscribeAccount subscribes to transaction events touching the given
// accounts.
func (c *WSClient) SubscribeAccount(accounts ...string) error {
	var resp json.RawMessage
	p := pftrpc.SubscribeParams{Accounts: accounts}
	return c.performRequest("subscribe", []interface{}{p}, &resp)
}

// SubscribeLedger subscribes to ledger close events.
func (c *WSClient) SubscribeLedger() error {
	var resp json.RawMessage
	p := pftrpc.SubscribeParams{Streams: []string{"ledger"}}
	return c.performRequest("subscribe", []interface{}{p}, &resp)
}
