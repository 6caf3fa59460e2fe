package ledger

import "time"

// epochOffset is the number of seconds between the Unix epoch and the
// ledger epoch (January 1, 2000 00:00 UTC).
const epochOffset = 946684800

// TimeFromLedger converts a ledger timestamp to time.Time.
func TimeFromLedger(sec int64) time.Time {
	return time.Unix(sec+epochOffset, 0).UTC()
}

// TimeToLedger converts a time.Time to a ledger timestamp.
func TimeToLedger(t time.Time) int64 {
	return t.Unix() - epochOffset
}
