package state

// Clone returns a copy of s that shares no mutable memory with it.
//
// Every substructure is copied explicitly. ProtocolSet is immutable and is
// shared.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Lanes = cloneLanes(s.Lanes)
	c.Modules = cloneLevels(s.Modules)
	c.Upgrades = cloneLevels(s.Upgrades)
	c.Board = s.Board.Clone()
	c.Meta = s.Meta.Clone()
	return &c
}

// Clone returns a copy of the board.
func (b Board) Clone() Board {
	out := b
	out.Objectives = make([]Objective, len(b.Objectives))
	copy(out.Objectives, b.Objectives)
	return out
}

// Clone returns a copy of the meta progress.
func (m Meta) Clone() Meta {
	out := m
	out.Perks = cloneLevels(m.Perks)
	return out
}

func cloneLanes(lanes []Lane) []Lane {
	out := make([]Lane, len(lanes))
	for i, l := range lanes {
		out[i] = l
		out[i].Modules = make([]string, len(l.Modules))
		copy(out[i].Modules, l.Modules)
	}
	return out
}

// cloneLevels always returns a non-nil map so callers can write to it.
func cloneLevels(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
