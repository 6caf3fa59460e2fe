package ledger

import (
	"encoding/json"
	"time"
)

// TransactionRecord is a single entry of an account's transaction
// history as returned by the ledger service. Tx and Meta are kept as
// received, the record is immutable once confirmed and is cached
// locally keyed by Hash.
type TransactionRecord struct {
	Hash        string          `json:"hash"`
	LedgerIndex uint32          `json:"ledger_index"`
	Validated   bool            `json:"validated"`
	Tx          json.RawMessage `json:"tx_json"`
	Meta        json.RawMessage `json:"meta,omitempty"`
}

// TxData is the interpreted part of a transaction's JSON. Only the
// fields the task protocol cares about are represented.
type TxData struct {
	TransactionType string        `json:"TransactionType"`
	Account         string        `json:"Account"`
	Destination     string        `json:"Destination,omitempty"`
	DeliverMax      Amount        `json:"DeliverMax,omitempty"`
	Date            int64         `json:"date,omitempty"`
	LedgerIndex     uint32        `json:"ledger_index,omitempty"`
	Memos           []MemoWrapper `json:"Memos,omitempty"`
}

// Data parses the raw transaction JSON of the record.
func (r *TransactionRecord) Data() (TxData, error) {
	var d TxData
	err := json.Unmarshal(r.Tx, &d)
	return d, err
}

// Timestamp returns the close time of the ledger the transaction was
// recorded in. The zero time is returned when the raw JSON can't be
// interpreted.
func (r *TransactionRecord) Timestamp() time.Time {
	d, err := r.Data()
	if err != nil {
		return time.Time{}
	}
	return TimeFromLedger(d.Date)
}
