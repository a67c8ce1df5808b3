// Package graph holds the in-memory view of the external media graph.
//
// A Snapshot is owned by exactly one goroutine (the mixer loop); every
// mutation happens inside that loop, so no locking is needed. Downstream
// consumers only ever see the last consistent state via copies.
package graph

import (
	"sort"

	"piemixer/internal/domain"
)

// Snapshot is the point-in-time view of the graph's nodes and ports,
// refreshed by full enumeration and adjusted by incremental change events.
type Snapshot struct {
	nodes     map[uint32]*domain.Node
	portOwner map[uint32]uint32
}

// NewSnapshot returns an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		nodes:     make(map[uint32]*domain.Node),
		portOwner: make(map[uint32]uint32),
	}
}

// Replace swaps in the result of a full enumeration, dropping all prior state
func (s *Snapshot) Replace(nodes []domain.Node) {
	s.nodes = make(map[uint32]*domain.Node, len(nodes))
	s.portOwner = make(map[uint32]uint32)
	for _, n := range nodes {
		node := n
		s.nodes[node.ID] = &node
		for _, p := range node.Ports {
			s.portOwner[p.ID] = node.ID
		}
	}
}

// ApplyNode inserts or updates a node announced by the graph. Ports already
// known for the node are preserved; the update only refreshes attributes.
func (s *Snapshot) ApplyNode(n domain.Node) {
	if existing, ok := s.nodes[n.ID]; ok {
		existing.Description = n.Description
		existing.MediaClass = n.MediaClass
		return
	}
	node := n
	node.Ports = nil
	s.nodes[node.ID] = &node
}

// ApplyPort attaches a port to its owning node. It returns false when the
// owner is unknown, which can happen if the port announcement raced ahead
// of its node; the periodic resync heals such gaps.
func (s *Snapshot) ApplyPort(p domain.Port) bool {
	node, ok := s.nodes[p.NodeID]
	if !ok {
		return false
	}
	for i, existing := range node.Ports {
		if existing.ID == p.ID {
			node.Ports[i] = p
			return true
		}
	}
	node.Ports = append(node.Ports, p)
	s.portOwner[p.ID] = p.NodeID
	return true
}

// RemovedKind reports what a Remove call actually removed
type RemovedKind int

const (
	RemovedNothing RemovedKind = iota
	RemovedNode
	RemovedPort
)

// Remove retracts the object with the given global identifier. The graph
// service announces removals by bare ID, so this resolves whether the ID
// named a node or a port. Removing a node drops its ports with it.
func (s *Snapshot) Remove(id uint32) RemovedKind {
	if node, ok := s.nodes[id]; ok {
		for _, p := range node.Ports {
			delete(s.portOwner, p.ID)
		}
		delete(s.nodes, id)
		return RemovedNode
	}

	ownerID, ok := s.portOwner[id]
	if !ok {
		return RemovedNothing
	}
	delete(s.portOwner, id)
	if node, ok := s.nodes[ownerID]; ok {
		for i, p := range node.Ports {
			if p.ID == id {
				node.Ports = append(node.Ports[:i], node.Ports[i+1:]...)
				break
			}
		}
	}
	return RemovedPort
}

// Nodes returns a deep copy of all nodes sorted by identifier ascending.
// The copy is safe to hand to other goroutines.
func (s *Snapshot) Nodes() []*domain.Node {
	nodes := make([]*domain.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		copied := *n
		copied.Ports = append([]domain.Port(nil), n.Ports...)
		nodes = append(nodes, &copied)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Len returns the number of nodes in the snapshot
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// HasPort reports whether a port with the given ID currently exists.
// Link requests must revalidate their handles against the live snapshot;
// identifiers from an earlier generation may have been retired.
func (s *Snapshot) HasPort(id uint32) bool {
	_, ok := s.portOwner[id]
	return ok
}

// HasLinkEndpoints reports whether both ports of the link still exist
func (s *Snapshot) HasLinkEndpoints(k domain.LinkKey) bool {
	return s.HasPort(k.SourcePort) && s.HasPort(k.DestPort)
}
