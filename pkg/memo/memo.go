/*
Package memo converts raw payment memos into structured task protocol
events and back. The wire format is three independently hex-encoded byte
strings: "format" carries the actor name, "type" the task identifier and
"data" the free-text payload with a classification marker.
*/
package memo

import (
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/postfiat-dev/pft-go/pkg/ledger"
)

// Decoded is the structured form of a payment memo. Any field that
// could not be decoded is left empty, a Decoded value is thus never an
// error.
type Decoded struct {
	// User is the actor name, from the memo format field.
	User string
	// TaskID is the task identifier, from the memo type field.
	TaskID string
	// Data is the payload text, from the memo data field.
	Data string
}

// taskIDRe matches protocol task identifiers: a timestamp optionally
// suffixed by a 4-character code.
var taskIDRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}_\d{2}:\d{2}(?:__[A-Z0-9]{4})?`)

// Decode converts a wire memo into its structured form. Fields that are
// not valid hex or not valid text after hex-decoding degrade to the
// empty string instead of failing the decode.
func Decode(m ledger.Memo) Decoded {
	return Decoded{
		User:   hexToText(m.Format),
		TaskID: hexToText(m.Type),
		Data:   hexToText(m.Data),
	}
}

// Encode converts the structured form into a wire memo with hex-encoded
// fields.
func Encode(user, taskID, data string) ledger.Memo {
	return ledger.Memo{
		Format: textToHex(user),
		Type:   textToHex(taskID),
		Data:   textToHex(data),
	}
}

// Kind classifies the payload text of the decoded memo.
func (d Decoded) Kind() Kind {
	return Classify(d.Data)
}

// IsTaskBearing tells whether the memo belongs to a task conversation:
// either any field matches the task identifier pattern or the payload
// carries both the user and the output delineators. Plain payments and
// trust line transactions fail this test and stay out of task views.
func (d Decoded) IsTaskBearing() bool {
	joined := d.User + " " + d.TaskID + " " + d.Data
	if taskIDRe.MatchString(joined) {
		return true
	}
	return strings.Contains(joined, "user:") && strings.Contains(joined, "full_output:")
}

// IsPomodoro tells whether the memo is a pomodoro log entry, they use a
// task identifier with "==" instead of "__".
func (d Decoded) IsPomodoro() bool {
	return strings.Contains(d.TaskID, "==")
}

// ParentTaskID returns the task the pomodoro entry belongs to.
func (d Decoded) ParentTaskID() string {
	return strings.ReplaceAll(d.TaskID, "==", "__")
}

func hexToText(s string) string {
	b, err := hex.DecodeString(s)
	if err != nil || !utf8.Valid(b) {
		return ""
	}
	return string(b)
}

func textToHex(s string) string {
	return hex.EncodeToString([]byte(s))
}
