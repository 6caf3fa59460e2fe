/*
Package address implements encoding and validation of XRPL-style ledger
account addresses. Addresses are base58 strings over the ripple alphabet
carrying a one-byte version prefix, a 20-byte account identifier and a
4-byte double-SHA256 checksum.
*/
package address

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Prefix is the version byte of an ordinary account address.
const Prefix = 0x00

// rippleAlphabet is the base58 alphabet used by the ledger, it differs
// from the Bitcoin one.
var rippleAlphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

// ErrBadChecksum is returned when the trailing checksum of an address
// doesn't match its payload.
var ErrBadChecksum = errors.New("invalid address checksum")

// Decode decodes the given address string and returns the raw 20-byte
// account identifier.
func Decode(s string) ([]byte, error) {
	b, err := base58.DecodeAlphabet(s, rippleAlphabet)
	if err != nil {
		return nil, fmt.Errorf("invalid base58: %w", err)
	}
	if len(b) != 25 {
		return nil, fmt.Errorf("invalid address length: %d", len(b))
	}
	if b[0] != Prefix {
		return nil, fmt.Errorf("invalid address prefix: %#x", b[0])
	}
	sum := checksum(b[:21])
	if !bytes.Equal(b[21:], sum[:]) {
		return nil, ErrBadChecksum
	}
	return b[1:21], nil
}

// Encode returns the address string for the raw 20-byte account
// identifier.
func Encode(accountID []byte) string {
	b := append([]byte{Prefix}, accountID...)
	sum := checksum(b)
	return base58.EncodeAlphabet(append(b, sum[:]...), rippleAlphabet)
}

// IsValid checks whether the given string is a well-formed account
// address.
func IsValid(s string) bool {
	_, err := Decode(s)
	return err == nil
}

func checksum(b []byte) [4]byte {
	h := sha256.Sum256(b)
	h = sha256.Sum256(h[:])
	var sum [4]byte
	copy(sum[:], h[:4])
	return sum
}
