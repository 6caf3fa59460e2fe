package memo

import (
	"fmt"

	"github.com/postfiat-dev/pft-go/pkg/ledger"
)

const (
	// ChunkThreshold is the hex-encoded payload size above which a memo
	// must be split into parts (1 KB of raw payload).
	ChunkThreshold = 1024 * 2
	// ChunkSize is the number of raw payload bytes carried by one part.
	ChunkSize = 2048
)

// NeedsChunking tells whether the given payload text is too large for a
// single memo.
func NeedsChunking(payload string) bool {
	return len(textToHex(payload)) > ChunkThreshold
}

// Chunk splits an oversized payload into a sequence of wire memos, each
// carrying up to ChunkSize payload bytes, tagged part_i_of_n in the
// memo type field. There is no reassembly counterpart here, receivers
// are expected to reassemble by their own convention.
func Chunk(payload string) []ledger.Memo {
	n := (len(payload) + ChunkSize - 1) / ChunkSize
	if n == 0 {
		n = 1
	}
	memos := make([]ledger.Memo, 0, n)
	for i := 0; i < n; i++ {
		end := (i + 1) * ChunkSize
		if end > len(payload) {
			end = len(payload)
		}
		memos = append(memos, ledger.Memo{
			Data:   textToHex(payload[i*ChunkSize : end]),
			Type:   textToHex(fmt.Sprintf("part_%d_of_%d", i+1, n)),
			Format: textToHex("text/plain"),
		})
	}
	return memos
}
