package state

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical JSON form of v.
// CRITICAL: This is the ONLY serialization used for fingerprints and saved
// envelopes.
//
// Differences from json.Marshal:
//  1. No HTML escaping (< > & are NOT escaped)
//  2. Output is NFC normalized
//  3. No trailing newline
//
// Struct fields keep declaration order and map keys are sorted by
// encoding/json, so equal values always produce equal bytes.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // CRITICAL: <, >, & must NOT be escaped
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal canonical: %w", err)
	}

	// json.Encoder adds trailing newline, remove it
	out := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})

	// JSON structure is ASCII, so normalizing the whole document only
	// touches string contents.
	return norm.NFC.Bytes(out), nil
}
