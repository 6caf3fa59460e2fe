package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAmountJSON(t *testing.T) {
	t.Run("native", func(t *testing.T) {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(`"1000000"`), &a))
		require.True(t, a.IsNative())
		require.Equal(t, "1000000", a.Value)

		b, err := json.Marshal(a)
		require.NoError(t, err)
		require.Equal(t, `"1000000"`, string(b))
	})
	t.Run("issued", func(t *testing.T) {
		var a Amount
		in := `{"currency":"PFT","issuer":"rnQUEEg8yyjrwk9FhyXpKavHyCRJM9BDMW","value":"1"}`
		require.NoError(t, json.Unmarshal([]byte(in), &a))
		require.False(t, a.IsNative())
		f, err := a.Float()
		require.NoError(t, err)
		require.Equal(t, 1.0, f)

		b, err := json.Marshal(a)
		require.NoError(t, err)
		require.JSONEq(t, in, string(b))
	})
	t.Run("bad", func(t *testing.T) {
		var a Amount
		require.Error(t, json.Unmarshal([]byte(`42`), &a))
	})
}

func TestTransactionRecordData(t *testing.T) {
	raw := `{
		"hash": "ABC123",
		"ledger_index": 77,
		"validated": true,
		"tx_json": {
			"TransactionType": "Payment",
			"Account": "rSenderrrrrrrrrrrrrrrrrrrrrrrrrrrr",
			"Destination": "rDestinationnnnnnnnnnnnnnnnnnnnnnn",
			"DeliverMax": {"currency":"PFT","issuer":"rIssuer","value":"1"},
			"date": 768602652,
			"ledger_index": 77,
			"Memos": [{"Memo": {"MemoData": "74657374"}}]
		}
	}`
	var r TransactionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	require.Equal(t, "ABC123", r.Hash)
	require.Equal(t, uint32(77), r.LedgerIndex)

	d, err := r.Data()
	require.NoError(t, err)
	require.Equal(t, "Payment", d.TransactionType)
	require.Equal(t, "PFT", d.DeliverMax.Currency)
	require.Len(t, d.Memos, 1)
	require.Equal(t, "74657374", d.Memos[0].Memo.Data)
	require.Equal(t, TimeFromLedger(768602652), r.Timestamp())
}

func TestLedgerTime(t *testing.T) {
	ts := TimeFromLedger(0)
	require.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), ts)
	require.EqualValues(t, 0, TimeToLedger(ts))
}

func TestWrapMemos(t *testing.T) {
	require.Nil(t, WrapMemos())
	mw := WrapMemos(Memo{Data: "00"}, Memo{Data: "01"})
	require.Len(t, mw, 2)
	require.Equal(t, "01", mw[1].Memo.Data)
}
