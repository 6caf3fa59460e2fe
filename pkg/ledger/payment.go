package ledger

// Payment is an outbound payment transaction carrying an amount and an
// optional set of memos from Account to Destination. Signing is left to
// the ledger gateway the payment is submitted through.
type Payment struct {
	TransactionType string        `json:"TransactionType"`
	Account         string        `json:"Account"`
	Destination     string        `json:"Destination"`
	Amount          Amount        `json:"Amount"`
	Memos           []MemoWrapper `json:"Memos,omitempty"`
}

// NewPayment returns a Payment with the transaction type set.
func NewPayment(from, to string, amount Amount, memos ...Memo) Payment {
	return Payment{
		TransactionType: "Payment",
		Account:         from,
		Destination:     to,
		Amount:          amount,
		Memos:           WrapMemos(memos...),
	}
}

// TrustSet is the transaction establishing a trust line that allows
// Account to hold the issued token named in LimitAmount.
type TrustSet struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	LimitAmount     Amount `json:"LimitAmount"`
}

// NewTrustSet returns a TrustSet with the transaction type set.
func NewTrustSet(account string, limit Amount) TrustSet {
	return TrustSet{
		TransactionType: "TrustSet",
		Account:         account,
		LimitAmount:     limit,
	}
}
