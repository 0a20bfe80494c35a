package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainState = "backpressure/state/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return h.Sum(nil)
}

// Fingerprint returns the content hash of a state.
// Two states have equal fingerprints iff their canonical encodings are equal.
func Fingerprint(s *State) (string, error) {
	canonical, err := MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hex.EncodeToString(HashWithDomain(DomainState, canonical)), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the state is known to be encodable.
func MustFingerprint(s *State) string {
	fp, err := Fingerprint(s)
	if err != nil {
		panic(err)
	}
	return fp
}
