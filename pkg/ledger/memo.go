package ledger

// Memo is the wire form of a payment annotation. All three fields are
// hex-encoded byte strings. The protocol puts the actor name into Format,
// the task identifier into Type and the payload text into Data.
type Memo struct {
	Type   string `json:"MemoType,omitempty"`
	Format string `json:"MemoFormat,omitempty"`
	Data   string `json:"MemoData,omitempty"`
}

// MemoWrapper is the envelope a Memo travels in inside transaction JSON.
type MemoWrapper struct {
	Memo Memo `json:"Memo"`
}

// WrapMemos puts the given memos into their wire envelopes.
func WrapMemos(memos ...Memo) []MemoWrapper {
	if len(memos) == 0 {
		return nil
	}
	mw := make([]MemoWrapper, len(memos))
	for i := range memos {
		mw[i].Memo = memos[i]
	}
	return mw
}
