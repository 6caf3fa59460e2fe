/*
Package tasks folds ordered streams of decoded memo events into per-task
lifecycle state and the read-only views the wallet surfaces are built
from. A task is always a fold over its events, it's never edited
directly; replaying the same events always yields the same state.
*/
package tasks

import (
	"time"

	"github.com/postfiat-dev/pft-go/pkg/memo"
)

// Direction tells whether an event's transaction was received by or sent
// from the local account.
type Direction byte

// Possible event directions.
const (
	Incoming Direction = iota
	Outgoing
)

// String implements the fmt.Stringer interface.
func (d Direction) String() string {
	if d == Incoming {
		return "INCOMING"
	}
	return "OUTGOING"
}

// Event is one decoded memo enriched with its transaction context. The
// ordering key across events is the ledger index, ascending.
type Event struct {
	// Hash is the carrying transaction's hash.
	Hash string
	// LedgerIndex is the carrying transaction's ledger sequence index.
	LedgerIndex uint32
	// Timestamp is the close time of the carrying ledger.
	Timestamp time.Time
	// Direction is relative to the local account.
	Direction Direction
	// Counterparty is the other side of the transaction (the node).
	Counterparty string
	// User, TaskID and Payload are the decoded memo fields.
	User    string
	TaskID  string
	Payload string
	// Kind is the payload classification.
	Kind memo.Kind
	// TokenAmount is the issued token amount moved by the transaction,
	// signed positive when incoming, negative when outgoing, zero for
	// non-token transactions.
	TokenAmount float64
	// IsToken tells whether the transaction moved the protocol token.
	IsToken bool
	// TaskBearing tells whether the event takes part in task
	// aggregation. Non-bearing events stay visible in the raw memo
	// stream only.
	TaskBearing bool
}
