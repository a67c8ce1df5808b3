package domain

import "sort"

// LinkKey identifies one directed signal connection from a source port
// (direction out) to a destination port (direction in). At most one link
// may exist per (source, dest) pair; a destination port may receive links
// from many distinct source ports, which is how fan-in mixing works.
type LinkKey struct {
	SourcePort uint32 `json:"source_port"`
	DestPort   uint32 `json:"dest_port"`
}

// LinkSet is a set of links keyed by port pair
type LinkSet map[LinkKey]struct{}

// NewLinkSet builds a set from the given keys
func NewLinkSet(keys ...LinkKey) LinkSet {
	s := make(LinkSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts a link into the set
func (s LinkSet) Add(k LinkKey) {
	s[k] = struct{}{}
}

// Remove deletes a link from the set
func (s LinkSet) Remove(k LinkKey) {
	delete(s, k)
}

// Contains reports whether the link is in the set
func (s LinkSet) Contains(k LinkKey) bool {
	_, ok := s[k]
	return ok
}

// Equal reports whether both sets hold exactly the same links
func (s LinkSet) Equal(other LinkSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Contains(k) {
			return false
		}
	}
	return true
}

// Minus returns the links present in s but not in other,
// sorted by (source, dest) for deterministic apply order
func (s LinkSet) Minus(other LinkSet) []LinkKey {
	var keys []LinkKey
	for k := range s {
		if !other.Contains(k) {
			keys = append(keys, k)
		}
	}
	sortLinkKeys(keys)
	return keys
}

// Sorted returns all links in the set ordered by (source, dest)
func (s LinkSet) Sorted() []LinkKey {
	keys := make([]LinkKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sortLinkKeys(keys)
	return keys
}

func sortLinkKeys(keys []LinkKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SourcePort != keys[j].SourcePort {
			return keys[i].SourcePort < keys[j].SourcePort
		}
		return keys[i].DestPort < keys[j].DestPort
	})
}
