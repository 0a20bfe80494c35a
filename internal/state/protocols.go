package state

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ProtocolSet is an immutable set of protocol ids kept in sorted order.
//
// It serializes as a sorted JSON list and is rebuilt as a set on load, so
// duplicate or unsorted input lists decode to the same value.
type ProtocolSet struct {
	ids []string
}

// NewProtocolSet builds a set from ids, dropping duplicates and empty ids.
func NewProtocolSet(ids ...string) ProtocolSet {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return ProtocolSet{ids: dedupeSorted(out)}
}

// Has reports whether id is in the set.
func (p ProtocolSet) Has(id string) bool {
	i := sort.SearchStrings(p.ids, id)
	return i < len(p.ids) && p.ids[i] == id
}

// With returns a set that also contains id. The receiver is unchanged.
func (p ProtocolSet) With(id string) ProtocolSet {
	if id == "" || p.Has(id) {
		return p
	}
	out := make([]string, len(p.ids), len(p.ids)+1)
	copy(out, p.ids)
	out = append(out, id)
	sort.Strings(out)
	return ProtocolSet{ids: out}
}

// Len returns the number of distinct protocols in the set.
func (p ProtocolSet) Len() int {
	return len(p.ids)
}

// IDs returns the members in sorted order. The returned slice is a copy.
func (p ProtocolSet) IDs() []string {
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

// MarshalJSON encodes the set as a sorted list.
func (p ProtocolSet) MarshalJSON() ([]byte, error) {
	if p.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.ids)
}

// UnmarshalJSON decodes a list of ids into a set.
func (p *ProtocolSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("protocol set: %w", err)
	}
	*p = NewProtocolSet(ids...)
	return nil
}

func dedupeSorted(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
