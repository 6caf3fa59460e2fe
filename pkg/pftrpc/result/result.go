/*
Package result contains structures the ledger RPC calls unmarshal their
results into.
*/
package result

import (
	"encoding/json"

	"github.com/postfiat-dev/pft-go/pkg/ledger"
)

// AccountTx is one page of an account's transaction history. A non-nil
// Marker means more pages are available.
type AccountTx struct {
	Account        string                     `json:"account"`
	LedgerIndexMin int64                      `json:"ledger_index_min"`
	LedgerIndexMax int64                      `json:"ledger_index_max"`
	Transactions   []ledger.TransactionRecord `json:"transactions"`
	Marker         json.RawMessage            `json:"marker,omitempty"`
}

// AccountInfo is the state of a single account, Balance is the native
// balance in drops.
type AccountInfo struct {
	AccountData struct {
		Account  string `json:"Account"`
		Balance  string `json:"Balance"`
		Sequence uint32 `json:"Sequence"`
	} `json:"account_data"`
}

// TrustLine is a single token balance line of an account.
type TrustLine struct {
	Account  string `json:"account"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
	Limit    string `json:"limit"`
}

// AccountLines is the set of token balance lines of an account.
type AccountLines struct {
	Account string          `json:"account"`
	Lines   []TrustLine     `json:"lines"`
	Marker  json.RawMessage `json:"marker,omitempty"`
}

// TokenHolder is a single account holding an issued token, with the
// balance seen from the holder's side.
type TokenHolder struct {
	Account string
	Balance float64
}

// Submit is the outcome of a transaction submission. Accepted tells
// whether the transaction made it into a validated ledger; TxJSON is the
// finalized transaction as recorded.
type Submit struct {
	EngineResult        string          `json:"engine_result"`
	EngineResultMessage string          `json:"engine_result_message,omitempty"`
	Accepted            bool            `json:"accepted"`
	Hash                string          `json:"hash,omitempty"`
	TxJSON              json.RawMessage `json:"tx_json,omitempty"`
}

// Tx returns the finalized transaction data of a submission.
func (s *Submit) Tx() (ledger.TxData, error) {
	var d ledger.TxData
	err := json.Unmarshal(s.TxJSON, &d)
	return d, err
}
