package graph

import (
	"testing"

	"piemixer/internal/domain"
)

func sampleNodes() []domain.Node {
	return []domain.Node{
		{
			ID: 40, Description: "Cubilux SPDIF Receiver", MediaClass: "Audio/Source",
			Ports: []domain.Port{
				{ID: 88, NodeID: 40, Channel: "FL", Direction: domain.DirectionOut},
				{ID: 89, NodeID: 40, Channel: "FR", Direction: domain.DirectionOut},
			},
		},
		{
			ID: 42, Description: "USB SPDIF Adapter", MediaClass: "Audio/Sink",
			Ports: []domain.Port{
				{ID: 84, NodeID: 42, Channel: "FL", Direction: domain.DirectionIn},
				{ID: 86, NodeID: 42, Channel: "FR", Direction: domain.DirectionIn},
			},
		},
	}
}

func TestSnapshotReplace(t *testing.T) {
	s := NewSnapshot()
	s.Replace(sampleNodes())

	if s.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", s.Len())
	}
	if !s.HasPort(88) || !s.HasPort(86) {
		t.Error("expected ports indexed after replace")
	}

	t.Run("replace drops prior state", func(t *testing.T) {
		s.Replace(nil)
		if s.Len() != 0 {
			t.Errorf("expected empty snapshot, got %d nodes", s.Len())
		}
		if s.HasPort(88) {
			t.Error("expected port index cleared")
		}
	})
}

func TestSnapshotApply(t *testing.T) {
	t.Run("apply node then ports", func(t *testing.T) {
		s := NewSnapshot()
		s.ApplyNode(domain.Node{ID: 40, Description: "Cubilux SPDIF Receiver", MediaClass: "Audio/Source"})
		if !s.ApplyPort(domain.Port{ID: 88, NodeID: 40, Channel: "FL", Direction: domain.DirectionOut}) {
			t.Fatal("expected port applied to known node")
		}

		nodes := s.Nodes()
		if len(nodes) != 1 || len(nodes[0].Ports) != 1 {
			t.Fatalf("expected 1 node with 1 port, got %v", nodes)
		}
	})

	t.Run("port for unknown node is rejected", func(t *testing.T) {
		s := NewSnapshot()
		if s.ApplyPort(domain.Port{ID: 88, NodeID: 40}) {
			t.Error("expected port for unknown node to be rejected")
		}
	})

	t.Run("node update preserves ports", func(t *testing.T) {
		s := NewSnapshot()
		s.Replace(sampleNodes())
		s.ApplyNode(domain.Node{ID: 40, Description: "Renamed Receiver", MediaClass: "Audio/Source"})

		nodes := s.Nodes()
		if nodes[0].Description != "Renamed Receiver" {
			t.Errorf("expected description updated, got %s", nodes[0].Description)
		}
		if len(nodes[0].Ports) != 2 {
			t.Errorf("expected ports preserved, got %d", len(nodes[0].Ports))
		}
	})

	t.Run("duplicate port announcement updates in place", func(t *testing.T) {
		s := NewSnapshot()
		s.Replace(sampleNodes())
		s.ApplyPort(domain.Port{ID: 88, NodeID: 40, Channel: "FL", Direction: domain.DirectionOut})

		nodes := s.Nodes()
		if len(nodes[0].Ports) != 2 {
			t.Errorf("expected no duplicate port, got %d ports", len(nodes[0].Ports))
		}
	})
}

func TestSnapshotRemove(t *testing.T) {
	t.Run("removing a node drops its ports", func(t *testing.T) {
		s := NewSnapshot()
		s.Replace(sampleNodes())

		if kind := s.Remove(40); kind != RemovedNode {
			t.Fatalf("expected RemovedNode, got %v", kind)
		}
		if s.HasPort(88) || s.HasPort(89) {
			t.Error("expected orphaned ports removed from index")
		}
		if s.Len() != 1 {
			t.Errorf("expected 1 node remaining, got %d", s.Len())
		}
	})

	t.Run("removing a port leaves the node", func(t *testing.T) {
		s := NewSnapshot()
		s.Replace(sampleNodes())

		if kind := s.Remove(88); kind != RemovedPort {
			t.Fatalf("expected RemovedPort, got %v", kind)
		}
		nodes := s.Nodes()
		if len(nodes[0].Ports) != 1 {
			t.Errorf("expected 1 port remaining on node 40, got %d", len(nodes[0].Ports))
		}
	})

	t.Run("unknown ID removes nothing", func(t *testing.T) {
		s := NewSnapshot()
		s.Replace(sampleNodes())
		if kind := s.Remove(12345); kind != RemovedNothing {
			t.Errorf("expected RemovedNothing, got %v", kind)
		}
	})
}

func TestSnapshotNodesCopy(t *testing.T) {
	s := NewSnapshot()
	s.Replace(sampleNodes())

	nodes := s.Nodes()
	nodes[0].Description = "mutated"
	nodes[0].Ports[0].Channel = "XX"

	fresh := s.Nodes()
	if fresh[0].Description == "mutated" {
		t.Error("expected Nodes to return an independent copy")
	}
	if fresh[0].Ports[0].Channel == "XX" {
		t.Error("expected ports copied, not shared")
	}
}

func TestHasLinkEndpoints(t *testing.T) {
	s := NewSnapshot()
	s.Replace(sampleNodes())

	ok := domain.LinkKey{SourcePort: 88, DestPort: 84}
	if !s.HasLinkEndpoints(ok) {
		t.Error("expected both endpoints present")
	}

	s.Remove(40)
	if s.HasLinkEndpoints(ok) {
		t.Error("expected stale source endpoint detected")
	}
}
