/*
Package pftrpc contains a set of types used for JSON-RPC communication
with ledger RPC services. It defines basic request/response types as well
as the parameter structures of the calls the client performs.
*/
package pftrpc

import (
	"encoding/json"
	"fmt"
)

const (
	// JSONRPCVersion is the only JSON-RPC protocol version supported.
	JSONRPCVersion = "2.0"

	// EarliestLedgerIndex is the sentinel requesting history from the
	// earliest ledger the server has.
	EarliestLedgerIndex = -1
	// LatestLedgerIndex is the sentinel requesting history up to the
	// most recent validated ledger.
	LatestLedgerIndex = -1
)

type (
	// Request represents a JSON-RPC request sent to a ledger service.
	Request struct {
		// JSONRPC is the protocol version, only valid when it contains
		// JSONRPCVersion.
		JSONRPC string `json:"jsonrpc"`
		// Method is the method being called.
		Method string `json:"method"`
		// Params is a set of method-specific parameters passed to the
		// call. Ledger services expect a single object wrapped into an
		// array.
		Params []interface{} `json:"params"`
		// ID is a numeric identifier associated with this request.
		ID uint64 `json:"id"`
	}

	// Header is a generic JSON-RPC 2.0 response header (ID and JSON-RPC
	// version).
	Header struct {
		ID      json.RawMessage `json:"id"`
		JSONRPC string          `json:"jsonrpc"`
	}

	// HeaderAndError adds an Error (that can be empty) to the Header,
	// it's used to construct type-specific responses.
	HeaderAndError struct {
		Header
		Error *Error `json:"error,omitempty"`
	}

	// Response represents a standard raw JSON-RPC 2.0 response.
	Response struct {
		HeaderAndError
		Result json.RawMessage `json:"result,omitempty"`
	}

	// Notification is a type used to represent the wire format of
	// events, they're special in that they look like requests but they
	// don't have IDs and their "method" is actually an event name.
	Notification struct {
		JSONRPC string          `json:"jsonrpc"`
		Event   EventID         `json:"method"`
		Payload json.RawMessage `json:"params"`
	}

	// EventID is the identifier of a subscription stream event.
	EventID string
)

const (
	// TransactionEventID is emitted when a transaction touching a
	// subscribed account is validated.
	TransactionEventID EventID = "transaction"
	// LedgerClosedEventID is emitted when a new ledger is validated.
	LedgerClosedEventID EventID = "ledgerClosed"
)

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Data == "" {
		return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("RPC error %d: %s (%s)", e.Code, e.Message, e.Data)
}

// NewError is a helper for constructing error responses.
func NewError(code int64, message string) *Error {
	return &Error{Code: code, Message: message}
}
