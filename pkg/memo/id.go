package memo

import (
	"math/rand"
	"time"
)

const (
	idLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idDigits  = "0123456789"
)

// GenerateID produces a fresh task identifier of the canonical
// `YYYY-MM-DD_HH:MM__XXNN` form used for node-initiated requests.
func GenerateID() string {
	return GenerateIDAt(time.Now())
}

// GenerateIDAt is like GenerateID with an explicit timestamp.
func GenerateIDAt(t time.Time) string {
	suffix := []byte{
		idLetters[rand.Intn(len(idLetters))],
		idLetters[rand.Intn(len(idLetters))],
		idDigits[rand.Intn(len(idDigits))],
		idDigits[rand.Intn(len(idDigits))],
	}
	return t.Format("2006-01-02_15:04") + "__" + string(suffix)
}
