package pftrpc

import "encoding/json"

// AccountTxParams are the parameters of the paginated "account_tx"
// history query. Marker is an opaque server-issued pagination cursor and
// must be passed back unmodified to fetch the next page.
type AccountTxParams struct {
	Account        string          `json:"account"`
	LedgerIndexMin int64           `json:"ledger_index_min"`
	LedgerIndexMax int64           `json:"ledger_index_max"`
	Limit          int             `json:"limit,omitempty"`
	Marker         json.RawMessage `json:"marker,omitempty"`
	Forward        bool            `json:"forward"`
}

// AccountInfoParams are the parameters of the "account_info" point query.
type AccountInfoParams struct {
	Account     string `json:"account"`
	LedgerIndex string `json:"ledger_index,omitempty"`
}

// AccountLinesParams are the parameters of the "account_lines" token
// balance query. Peer optionally restricts the result to lines against a
// single counterparty.
type AccountLinesParams struct {
	Account     string `json:"account"`
	Peer        string `json:"peer,omitempty"`
	LedgerIndex string `json:"ledger_index,omitempty"`
}

// SubmitParams are the parameters of the "submit" call. TxJSON carries
// the transaction to be signed and submitted by the gateway.
type SubmitParams struct {
	TxJSON interface{} `json:"tx_json"`
}

// SubscribeParams are the parameters of the websocket "subscribe" call.
type SubscribeParams struct {
	Streams  []string `json:"streams,omitempty"`
	Accounts []string `json:"accounts,omitempty"`
}

// ValidatedLedger is the ledger_index value selecting the latest
// validated ledger state in point queries.
const ValidatedLedger = "validated"
