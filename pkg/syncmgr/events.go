package syncmgr

import (
	"github.com/postfiat-dev/pft-go/pkg/ledger"
	"github.com/postfiat-dev/pft-go/pkg/memo"
	"github.com/postfiat-dev/pft-go/pkg/tasks"
)

// recordEvent interprets a cached transaction record relative to the
// local account. Only the first memo slot carries protocol meaning, so
// a record maps to at most one event; records without memos return nil.
func recordEvent(rec *ledger.TransactionRecord, account, currency, issuer string) *tasks.Event {
	d, err := rec.Data()
	if err != nil || len(d.Memos) == 0 {
		return nil
	}

	dir := tasks.Incoming
	counterparty := d.Account
	if d.Account == account {
		dir = tasks.Outgoing
		counterparty = d.Destination
	}

	var amount float64
	isToken := d.DeliverMax.Currency == currency && d.DeliverMax.Issuer == issuer
	if isToken {
		amount, _ = d.DeliverMax.Float()
		if dir == tasks.Outgoing {
			amount = -amount
		}
	}

	dec := memo.Decode(d.Memos[0].Memo)
	ev := tasks.Event{
		Hash:         rec.Hash,
		LedgerIndex:  rec.LedgerIndex,
		Timestamp:    ledger.TimeFromLedger(d.Date),
		Direction:    dir,
		Counterparty: counterparty,
		User:         dec.User,
		TaskID:       dec.TaskID,
		Payload:      dec.Data,
		Kind:         dec.Kind(),
		TokenAmount:  amount,
		IsToken:      isToken,
		TaskBearing:  dec.IsTaskBearing(),
	}
	return &ev
}
