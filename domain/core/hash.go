package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Short returns an abbreviated form for display
func (h Hash) Short() string {
	if len(h) > 12 {
		return string(h[:12])
	}
	return string(h)
}

// ComputeInputFingerprint hashes the CSV contents together with the optional
// log contents. A missing log hashes differently from an empty one.
func ComputeInputFingerprint(csvData, logData []byte, hasLog bool) Hash {
	h := sha256.New()
	h.Write(csvData)
	if hasLog {
		h.Write([]byte{0})
		h.Write(logData)
	}
	return Hash(hex.EncodeToString(h.Sum(nil)))
}
