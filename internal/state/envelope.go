package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrVersionMismatch is matched by every VersionError.
var ErrVersionMismatch = errors.New("envelope version mismatch")

// VersionError reports an envelope written by a different schema version.
// There is no migration; callers must surface this to the user.
type VersionError struct {
	Got  int
	Want int
}

// Error implements the error interface.
func (e *VersionError) Error() string {
	return fmt.Sprintf("envelope version %d, expected %d", e.Got, e.Want)
}

// Unwrap lets errors.Is match ErrVersionMismatch.
func (e *VersionError) Unwrap() error {
	return ErrVersionMismatch
}

// Envelope is the serialized form of a State.
type Envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Encode serializes s into a versioned envelope using canonical JSON.
func Encode(s *State) ([]byte, error) {
	if s == nil {
		return nil, errors.New("encode: nil state")
	}
	data, err := MarshalCanonical(s)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	out, err := MarshalCanonical(Envelope{Version: SchemaVersion, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out, nil
}

// Decode parses an envelope produced by Encode.
//
// Returns a *VersionError if the envelope version differs from SchemaVersion.
func Decode(data []byte) (*State, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version != SchemaVersion {
		return nil, &VersionError{Got: env.Version, Want: SchemaVersion}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, errors.New("decode envelope: missing data")
	}

	var s State
	if err := json.Unmarshal(env.Data, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	normalize(&s)
	return &s, nil
}

// normalize replaces nil collections left by decoding with empty ones.
func normalize(s *State) {
	if s.Modules == nil {
		s.Modules = map[string]int{}
	}
	if s.Upgrades == nil {
		s.Upgrades = map[string]int{}
	}
	if s.Meta.Perks == nil {
		s.Meta.Perks = map[string]int{}
	}
	if s.Lanes == nil {
		s.Lanes = []Lane{}
	}
	for i := range s.Lanes {
		mods := append([]string{}, s.Lanes[i].Modules...)
		sort.Strings(mods)
		s.Lanes[i].Modules = dedupeSorted(mods)
	}
	if s.Board.Objectives == nil {
		s.Board.Objectives = []Objective{}
	}
}
