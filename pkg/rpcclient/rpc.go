package rpcclient

import (
	"fmt"

	"github.com/postfiat-dev/pft-go/pkg/ledger"
	"github.com/postfiat-dev/pft-go/pkg/pftrpc"
	"github.com/postfiat-dev/pft-go/pkg/pftrpc/result"
)

// AccountTransactions performs an "account_tx" history query and returns
// a single page of results. Pass the marker of the previous page to
// continue iteration.
func (c *Client) AccountTransactions(p pftrpc.AccountTxParams) (*result.AccountTx, error) {
	resp := new(result.AccountTx)
	if err := c.performRequest("account_tx", []interface{}{p}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AccountInfo performs an "account_info" query against the latest
// validated ledger.
func (c *Client) AccountInfo(account string) (*result.AccountInfo, error) {
	resp := new(result.AccountInfo)
	p := pftrpc.AccountInfoParams{Account: account, LedgerIndex: pftrpc.ValidatedLedger}
	if err := c.performRequest("account_info", []interface{}{p}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AccountLines performs an "account_lines" query returning the token
// balance lines of the account. Peer can be empty.
func (c *Client) AccountLines(account, peer string) (*result.AccountLines, error) {
	resp := new(result.AccountLines)
	p := pftrpc.AccountLinesParams{Account: account, Peer: peer, LedgerIndex: pftrpc.ValidatedLedger}
	if err := c.performRequest("account_lines", []interface{}{p}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// TokenBalance returns the balance of the given issued token held by the
// account, zero if no matching trust line exists.
func (c *Client) TokenBalance(account, currency, issuer string) (float64, error) {
	lines, err := c.AccountLines(account, issuer)
	if err != nil {
		return 0, err
	}
	for _, l := range lines.Lines {
		if l.Currency == currency {
			var bal float64
			if _, err := fmt.Sscanf(l.Balance, "%g", &bal); err != nil {
				return 0, fmt.Errorf("bad balance %q: %w", l.Balance, err)
			}
			return bal, nil
		}
	}
	return 0, nil
}

// TokenHolders lists the accounts holding the given token, queried from
// the issuer's side. The issuer's trust lines carry holder balances as
// negative amounts, so they are sign-flipped to the holder's view.
// Accounts with a zero balance are skipped.
func (c *Client) TokenHolders(issuer, currency string) ([]result.TokenHolder, error) {
	lines, err := c.AccountLines(issuer, "")
	if err != nil {
		return nil, err
	}
	var holders []result.TokenHolder
	for _, l := range lines.Lines {
		if l.Currency != currency {
			continue
		}
		var bal float64
		if _, err := fmt.Sscanf(l.Balance, "%g", &bal); err != nil {
			return nil, fmt.Errorf("bad balance %q: %w", l.Balance, err)
		}
		if bal == 0 {
			continue
		}
		holders = append(holders, result.TokenHolder{Account: l.Account, Balance: -bal})
	}
	return holders, nil
}

// SubmitPayment signs and submits the given payment through the gateway
// and waits for its result. Submissions are never retried here, retrying
// a payment risks a duplicate spend.
func (c *Client) SubmitPayment(p ledger.Payment) (*result.Submit, error) {
	resp := new(result.Submit)
	if err := c.performRequest("submit", []interface{}{pftrpc.SubmitParams{TxJSON: p}}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SubmitTrustSet signs and submits the given trust line transaction
// through the gateway and waits for its result.
func (c *Client) SubmitTrustSet(ts ledger.TrustSet) (*result.Submit, error) {
	resp := new(result.Submit)
	if err := c.performRequest("submit", []interface{}{pftrpc.SubmitParams{TxJSON: ts}}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
