package adapter

import (
	"encoding/json"
	"testing"

	"piemixer/internal/domain"
)

const dumpFixture = `[
  {
    "id": 40,
    "type": "PipeWire:Interface:Node",
    "info": {
      "props": {
        "node.description": "Cubilux SPDIF Receiver",
        "node.name": "alsa_input.usb-Cubilux",
        "media.class": "Audio/Source"
      }
    }
  },
  {
    "id": 42,
    "type": "PipeWire:Interface:Node",
    "info": {
      "props": {
        "node.name": "alsa_output.usb-adapter",
        "media.class": "Audio/Sink"
      }
    }
  },
  {
    "id": 88,
    "type": "PipeWire:Interface:Port",
    "info": {
      "direction": "output",
      "props": {
        "node.id": 40,
        "port.name": "capture_FL",
        "port.direction": "out",
        "audio.channel": "FL"
      }
    }
  },
  {
    "id": 84,
    "type": "PipeWire:Interface:Port",
    "info": {
      "direction": "input",
      "props": {
        "node.id": "42",
        "port.name": "playback_FL",
        "audio.channel": "FL"
      }
    }
  },
  {
    "id": 7,
    "type": "PipeWire:Interface:Client",
    "info": { "props": {} }
  },
  {
    "id": 200,
    "type": "PipeWire:Interface:Port",
    "info": {
      "props": {
        "port.name": "orphan",
        "port.direction": "out"
      }
    }
  }
]`

func decodeFixture(t *testing.T, data string) []pwGlobal {
	t.Helper()
	var globals []pwGlobal
	if err := json.Unmarshal([]byte(data), &globals); err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	return globals
}

func TestAssembleNodes(t *testing.T) {
	nodes := assembleNodes(decodeFixture(t, dumpFixture))

	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}

	t.Run("node description with fallback", func(t *testing.T) {
		if nodes[0].Description != "Cubilux SPDIF Receiver" {
			t.Errorf("expected node.description used, got %s", nodes[0].Description)
		}
		if nodes[1].Description != "alsa_output.usb-adapter" {
			t.Errorf("expected node.name fallback, got %s", nodes[1].Description)
		}
	})

	t.Run("ports attached to owners", func(t *testing.T) {
		if len(nodes[0].Ports) != 1 {
			t.Fatalf("expected 1 port on node 40, got %d", len(nodes[0].Ports))
		}
		p := nodes[0].Ports[0]
		if p.ID != 88 || p.Channel != "FL" || p.Direction != domain.DirectionOut {
			t.Errorf("unexpected port: %+v", p)
		}
	})

	t.Run("string node.id is parsed", func(t *testing.T) {
		if len(nodes[1].Ports) != 1 || nodes[1].Ports[0].ID != 84 {
			t.Fatalf("expected port 84 on node 42, got %+v", nodes[1].Ports)
		}
	})

	t.Run("direction falls back to info direction", func(t *testing.T) {
		if nodes[1].Ports[0].Direction != domain.DirectionIn {
			t.Errorf("expected direction in, got %s", nodes[1].Ports[0].Direction)
		}
	})
}

func TestTranslateGlobals(t *testing.T) {
	t.Run("additions and removals", func(t *testing.T) {
		batch := decodeFixture(t, `[
		  {"id": 74, "type": "PipeWire:Interface:Node", "info": {"props": {"node.description": "Cubilux SPDIF Receiver", "media.class": "Audio/Source"}}},
		  {"id": 41, "type": "PipeWire:Interface:Port", "info": {"props": {"node.id": 74, "audio.channel": "FL", "port.direction": "out"}}},
		  {"id": 40, "info": null}
		]`)

		events := translateGlobals(batch)
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		if events[0].Kind != EventNodeAdded || events[0].Node.ID != 74 {
			t.Errorf("expected node-added for 74, got %+v", events[0])
		}
		if events[1].Kind != EventPortAdded || events[1].Port.ID != 41 || events[1].Port.NodeID != 74 {
			t.Errorf("expected port-added for 41, got %+v", events[1])
		}
		if events[2].Kind != EventRemoved || events[2].ID != 40 {
			t.Errorf("expected removal of 40, got %+v", events[2])
		}
	})

	t.Run("uninteresting types produce no events", func(t *testing.T) {
		batch := decodeFixture(t, `[
		  {"id": 7, "type": "PipeWire:Interface:Client", "info": {"props": {}}}
		]`)
		if events := translateGlobals(batch); len(events) != 0 {
			t.Errorf("expected no events, got %v", events)
		}
	})

	t.Run("port without owning node is dropped", func(t *testing.T) {
		batch := decodeFixture(t, `[
		  {"id": 200, "type": "PipeWire:Interface:Port", "info": {"props": {"port.name": "orphan"}}}
		]`)
		if events := translateGlobals(batch); len(events) != 0 {
			t.Errorf("expected no events, got %v", events)
		}
	})
}

func TestParsePortDefaults(t *testing.T) {
	g := decodeFixture(t, `[
	  {"id": 90, "type": "PipeWire:Interface:Port", "info": {"props": {"node.id": 40, "port.direction": "out"}}}
	]`)[0]

	p, ok := parsePort(g)
	if !ok {
		t.Fatal("expected port parsed")
	}
	if p.Channel != "unknown" {
		t.Errorf("expected channel default 'unknown', got %s", p.Channel)
	}
}
