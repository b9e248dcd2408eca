package cache

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// NormalizeAddress lowercases the address and collapses runs of whitespace
// to a single space.
func NormalizeAddress(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

// Fingerprint is the jurisdiction-namespace key for an address.
func Fingerprint(address string) string {
	sum := blake2b.Sum256([]byte(NormalizeAddress(address)))
	return hex.EncodeToString(sum[:])
}
