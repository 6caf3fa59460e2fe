package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// NativeCurrency is the currency code used for native ledger funds.
const NativeCurrency = "XRP"

// Amount represents a currency amount carried by a payment. It is either
// a native amount (drops of XRP, no issuer) or an issued token amount
// with a currency code and an issuer account. On the wire native amounts
// are plain strings while issued amounts are objects, both forms are
// handled transparently.
type Amount struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
	Value    string `json:"value"`
}

// NativeAmount returns a native Amount of the given number of drops.
func NativeAmount(drops int64) Amount {
	return Amount{Currency: NativeCurrency, Value: strconv.FormatInt(drops, 10)}
}

// IsNative tells whether the amount is denominated in native funds.
func (a Amount) IsNative() bool {
	return a.Currency == NativeCurrency || a.Currency == ""
}

// Float returns the amount value as a float64.
func (a Amount) Float() (float64, error) {
	return strconv.ParseFloat(a.Value, 64)
}

// MarshalJSON implements the json.Marshaler interface.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.IsNative() {
		return json.Marshal(a.Value)
	}
	type aux Amount
	return json.Marshal(aux(a))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var drops string
		if err := json.Unmarshal(data, &drops); err != nil {
			return err
		}
		a.Currency = NativeCurrency
		a.Issuer = ""
		a.Value = drops
		return nil
	}
	type aux Amount
	var v aux
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("not an amount: %w", err)
	}
	*a = Amount(v)
	return nil
}
