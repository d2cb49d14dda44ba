package giveaway

// Participants is an insertion-ordered set of actor ids.
type Participants []string

// NewParticipants builds a set from ids, dropping empties and duplicates.
func NewParticipants(ids []string) Participants {
	out := make(Participants, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Contains reports whether id is a member.
func (p Participants) Contains(id string) bool {
	for _, v := range p {
		if v == id {
			return true
		}
	}
	return false
}

// Add returns the set with id appended and true, or p unchanged and false if
// id is already present.
func (p Participants) Add(id string) (Participants, bool) {
	if id == "" || p.Contains(id) {
		return p, false
	}
	out := make(Participants, len(p), len(p)+1)
	copy(out, p)
	return append(out, id), true
}

// Remove returns the set without id and true, or p unchanged and false.
func (p Participants) Remove(id string) (Participants, bool) {
	for i, v := range p {
		if v != id {
			continue
		}
		out := make(Participants, 0, len(p)-1)
		out = append(out, p[:i]...)
		return append(out, p[i+1:]...), true
	}
	return p, false
}
