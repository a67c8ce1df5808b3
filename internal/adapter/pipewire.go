package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"piemixer/internal/domain"
)

const (
	typeNode = "PipeWire:Interface:Node"
	typePort = "PipeWire:Interface:Port"
)

// PipeWireClient talks to the local PipeWire daemon through its official
// CLI surface: pw-dump for enumeration and monitoring, pw-link for link
// management. Both ship with every PipeWire installation, including the
// minimal images used on embedded routing boxes.
type PipeWireClient struct {
	dumpCmd string
	linkCmd string
}

// NewPipeWireClient creates a client using the given command names.
// Empty strings select the standard tools on PATH.
func NewPipeWireClient(dumpCmd, linkCmd string) *PipeWireClient {
	if dumpCmd == "" {
		dumpCmd = "pw-dump"
	}
	if linkCmd == "" {
		linkCmd = "pw-link"
	}
	return &PipeWireClient{dumpCmd: dumpCmd, linkCmd: linkCmd}
}

// Enumerate runs a full dump of the graph and returns its audio nodes
func (c *PipeWireClient) Enumerate(ctx context.Context) ([]domain.Node, error) {
	out, err := exec.CommandContext(ctx, c.dumpCmd).Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", c.dumpCmd, err)
	}

	var globals []pwGlobal
	if err := json.Unmarshal(out, &globals); err != nil {
		return nil, fmt.Errorf("parse %s output: %w", c.dumpCmd, err)
	}

	return assembleNodes(globals), nil
}

// Monitor starts pw-dump in monitor mode and translates its update stream
// into change events. The returned channel closes when the monitor process
// exits or the context is cancelled.
func (c *PipeWireClient) Monitor(ctx context.Context) (<-chan Event, error) {
	cmd := exec.CommandContext(ctx, c.dumpCmd, "-m")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("pipe %s: %w", c.dumpCmd, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s -m: %w", c.dumpCmd, err)
	}

	events := make(chan Event, 64)
	go func() {
		defer close(events)
		defer cmd.Wait()
		c.pump(ctx, stdout, events)
	}()

	return events, nil
}

// pump decodes successive JSON arrays from the monitor stream and emits
// one event per interesting global.
func (c *PipeWireClient) pump(ctx context.Context, r io.Reader, events chan<- Event) {
	dec := json.NewDecoder(r)
	for {
		var globals []pwGlobal
		if err := dec.Decode(&globals); err != nil {
			if ctx.Err() == nil && err != io.EOF {
				slog.Warn("Graph monitor stream ended", "err", err)
			}
			return
		}
		for _, ev := range translateGlobals(globals) {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// CreateLink connects a source port to a destination port via pw-link
func (c *PipeWireClient) CreateLink(ctx context.Context, link domain.LinkKey) error {
	out, err := exec.CommandContext(ctx, c.linkCmd,
		strconv.FormatUint(uint64(link.SourcePort), 10),
		strconv.FormatUint(uint64(link.DestPort), 10),
	).CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "File exists") {
			return ErrLinkExists
		}
		return fmt.Errorf("%s %d %d: %v: %s", c.linkCmd, link.SourcePort, link.DestPort, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// RemoveLink disconnects a port pair via pw-link -d
func (c *PipeWireClient) RemoveLink(ctx context.Context, link domain.LinkKey) error {
	out, err := exec.CommandContext(ctx, c.linkCmd, "-d",
		strconv.FormatUint(uint64(link.SourcePort), 10),
		strconv.FormatUint(uint64(link.DestPort), 10),
	).CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "No such file") {
			return ErrLinkNotFound
		}
		return fmt.Errorf("%s -d %d %d: %v: %s", c.linkCmd, link.SourcePort, link.DestPort, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// pwGlobal is one object in pw-dump's JSON output. Monitor mode announces
// removals as objects whose info member is null.
type pwGlobal struct {
	ID   uint32  `json:"id"`
	Type string  `json:"type"`
	Info *pwInfo `json:"info"`
}

type pwInfo struct {
	Direction string         `json:"direction"`
	Props     map[string]any `json:"props"`
}

// assembleNodes builds complete nodes from a full dump: first pass collects
// nodes, second pass attaches ports to their owners. Ports whose owner is
// not in the dump are dropped.
func assembleNodes(globals []pwGlobal) []domain.Node {
	nodes := make(map[uint32]*domain.Node)
	var order []uint32

	for _, g := range globals {
		if g.Type == typeNode && g.Info != nil {
			n := parseNode(g)
			nodes[n.ID] = &n
			order = append(order, n.ID)
		}
	}
	for _, g := range globals {
		if g.Type == typePort && g.Info != nil {
			if p, ok := parsePort(g); ok {
				if owner, known := nodes[p.NodeID]; known {
					owner.Ports = append(owner.Ports, p)
				}
			}
		}
	}

	result := make([]domain.Node, 0, len(order))
	for _, id := range order {
		result = append(result, *nodes[id])
	}
	return result
}

// translateGlobals converts one monitor-mode update batch into events
func translateGlobals(globals []pwGlobal) []Event {
	var events []Event
	for _, g := range globals {
		switch {
		case g.Info == nil:
			events = append(events, Event{Kind: EventRemoved, ID: g.ID})
		case g.Type == typeNode:
			n := parseNode(g)
			events = append(events, Event{Kind: EventNodeAdded, Node: &n})
		case g.Type == typePort:
			if p, ok := parsePort(g); ok {
				events = append(events, Event{Kind: EventPortAdded, Port: &p})
			}
		}
	}
	return events
}

func parseNode(g pwGlobal) domain.Node {
	props := g.Info.Props
	desc := propString(props, "node.description", "node.name")
	if desc == "" {
		desc = "Unknown"
	}
	class := propString(props, "media.class")
	if class == "" {
		class = "Unknown"
	}
	return domain.Node{ID: g.ID, Description: desc, MediaClass: class}
}

func parsePort(g pwGlobal) (domain.Port, bool) {
	props := g.Info.Props
	nodeID, ok := propUint32(props, "node.id")
	if !ok {
		return domain.Port{}, false
	}

	channel := propString(props, "audio.channel", "port.name")
	if channel == "" {
		channel = "unknown"
	}

	dir := propString(props, "port.direction")
	if dir == "" {
		// fall back to the info-level direction, which uses long names
		switch g.Info.Direction {
		case "input":
			dir = string(domain.DirectionIn)
		case "output":
			dir = string(domain.DirectionOut)
		}
	}

	return domain.Port{
		ID:        g.ID,
		NodeID:    nodeID,
		Channel:   channel,
		Direction: domain.Direction(dir),
	}, true
}

func propString(props map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := props[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// propUint32 reads a numeric property that some versions report as a JSON
// number and others as a string
func propUint32(props map[string]any, key string) (uint32, bool) {
	switch v := props[key].(type) {
	case float64:
		return uint32(v), true
	case string:
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return 0, false
		}
		return uint32(n), true
	default:
		return 0, false
	}
}
