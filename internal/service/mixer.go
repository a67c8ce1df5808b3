package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"piemixer/internal/adapter"
	"piemixer/internal/domain"
	"piemixer/internal/graph"
	"piemixer/internal/metrics"
)

// monitorRetryDelay paces resubscription attempts after the change
// notification stream drops.
const monitorRetryDelay = 2 * time.Second

// Mixer drives the discovery, classification, planning and reconciliation
// pipeline. One goroutine owns the whole loop: every change notification is
// handled to completion before the next one, so the snapshot and the owned
// link set never see concurrent writers.
type Mixer struct {
	client         adapter.GraphClient
	snap           *graph.Snapshot
	reconciler     *Reconciler
	bus            *EventBus
	resyncInterval time.Duration

	mu     sync.RWMutex
	rules  []domain.MatchRule
	status Status

	reload chan struct{}
}

// Status is a read-only view of the mixer state, refreshed after every
// pipeline pass. It is what the operator API serves.
type Status struct {
	Nodes      []*domain.Node   `json:"nodes"`
	InputIDs   []uint32         `json:"input_ids"`
	OutputID   uint32           `json:"output_id,omitempty"`
	OwnedLinks []domain.LinkKey `json:"owned_links"`
	Passes     uint64           `json:"passes"`
	LastPass   time.Time        `json:"last_pass"`
}

// NewMixer creates a mixer with the given match rules
func NewMixer(client adapter.GraphClient, reconciler *Reconciler, bus *EventBus, rules []domain.MatchRule, resyncInterval time.Duration) *Mixer {
	return &Mixer{
		client:         client,
		snap:           graph.NewSnapshot(),
		reconciler:     reconciler,
		bus:            bus,
		resyncInterval: resyncInterval,
		rules:          rules,
		reload:         make(chan struct{}, 1),
	}
}

// SetRules swaps the active match rules and schedules a pipeline pass.
// Called from the config watcher when the rules file changes.
func (m *Mixer) SetRules(rules []domain.MatchRule) {
	m.mu.Lock()
	m.rules = rules
	m.mu.Unlock()

	m.bus.Publish(Event{Type: EventRulesReloaded, Payload: len(rules)})
	select {
	case m.reload <- struct{}{}:
	default:
	}
}

// Status returns the view of the last completed pass
func (m *Mixer) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Run performs initial discovery and then serves change notifications until
// the context is cancelled. A failed initial enumeration is fatal; once
// running, every error is local to its node, pair or link. On cancellation
// the loop exits cleanly and leaves established links in place: the routing
// is meant to survive the controlling process.
func (m *Mixer) Run(ctx context.Context) error {
	if err := m.bootstrap(ctx); err != nil {
		return err
	}

	events, err := m.client.Monitor(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to graph changes: %w", err)
	}

	var resync <-chan time.Time
	if m.resyncInterval > 0 {
		ticker := time.NewTicker(m.resyncInterval)
		defer ticker.Stop()
		resync = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down, established links stay in place", "owned", m.reconciler.OwnedCount())
			return nil

		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					slog.Info("Shutting down, established links stay in place", "owned", m.reconciler.OwnedCount())
					return nil
				}
				events = m.resubscribe(ctx)
				continue
			}
			m.handleEvent(ev)
			// coalesce bursts: a device appearing announces its node and
			// every port back to back, one pass covers them all
			m.drain(events)
			m.pass(ctx, false)

		case <-m.reload:
			slog.Info("Match rules changed, replanning")
			m.pass(ctx, false)

		case <-resync:
			if err := m.refresh(ctx); err != nil {
				slog.Warn("Periodic resync failed, keeping last snapshot", "err", err)
				continue
			}
			m.pass(ctx, false)
		}
	}
}

// bootstrap runs the initial discovery and the first pipeline pass
func (m *Mixer) bootstrap(ctx context.Context) error {
	nodes, err := m.client.Enumerate(ctx)
	if err != nil {
		return fmt.Errorf("initial graph enumeration: %w", err)
	}
	m.snap.Replace(nodes)
	slog.Info("Graph nodes found", "count", m.snap.Len())
	for _, n := range m.snap.Nodes() {
		slog.Debug("Discovered node", "id", n.ID, "description", n.Description, "class", n.MediaClass, "ports", len(n.Ports))
	}

	if err := m.reconciler.Restore(ctx, m.snap); err != nil {
		slog.Warn("Could not restore link ownership, starting empty", "err", err)
	}

	m.pass(ctx, true)
	return nil
}

// refresh replaces the snapshot with a fresh enumeration
func (m *Mixer) refresh(ctx context.Context) error {
	nodes, err := m.client.Enumerate(ctx)
	if err != nil {
		return err
	}
	m.snap.Replace(nodes)
	return nil
}

// resubscribe re-establishes the change notification stream after it drops,
// resyncing the snapshot to cover anything missed in between
func (m *Mixer) resubscribe(ctx context.Context) <-chan adapter.Event {
	slog.Warn("Graph change stream closed, resubscribing")
	for {
		select {
		case <-ctx.Done():
			closed := make(chan adapter.Event)
			close(closed)
			return closed
		case <-time.After(monitorRetryDelay):
		}

		if err := m.refresh(ctx); err != nil {
			slog.Warn("Resync before resubscribe failed", "err", err)
			continue
		}
		events, err := m.client.Monitor(ctx)
		if err != nil {
			slog.Warn("Resubscribe failed", "err", err)
			continue
		}
		m.pass(ctx, false)
		return events
	}
}

// handleEvent applies one change notification to the snapshot
func (m *Mixer) handleEvent(ev adapter.Event) {
	metrics.GraphEvents.WithLabelValues(string(ev.Kind)).Inc()

	switch ev.Kind {
	case adapter.EventNodeAdded:
		m.snap.ApplyNode(*ev.Node)
		slog.Debug("Node announced", "id", ev.Node.ID, "description", ev.Node.Description, "class", ev.Node.MediaClass)
	case adapter.EventPortAdded:
		if !m.snap.ApplyPort(*ev.Port) {
			slog.Debug("Port announced before its node, waiting for resync", "port", ev.Port.ID, "node", ev.Port.NodeID)
			return
		}
		slog.Debug("Port announced", "id", ev.Port.ID, "node", ev.Port.NodeID, "channel", ev.Port.Channel, "direction", ev.Port.Direction)
	case adapter.EventRemoved:
		switch m.snap.Remove(ev.ID) {
		case graph.RemovedNode:
			slog.Debug("Node retracted", "id", ev.ID)
		case graph.RemovedPort:
			slog.Debug("Port retracted", "id", ev.ID)
		}
	}
}

// drain consumes any change notifications already queued so one pass can
// cover the whole burst
func (m *Mixer) drain(events <-chan adapter.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handleEvent(ev)
		default:
			return
		}
	}
}

// pass runs classify, plan and reconcile over the current snapshot
func (m *Mixer) pass(ctx context.Context, initial bool) {
	m.mu.RLock()
	rules := m.rules
	m.mu.RUnlock()

	nodes := m.snap.Nodes()
	classification := domain.Classify(nodes, rules)
	for _, w := range classification.Warnings {
		slog.Warn(w)
	}

	plan := domain.BuildPlan(classification.Inputs, classification.Output)
	for _, w := range plan.Warnings {
		slog.Warn(w)
	}

	result := m.reconciler.Reconcile(ctx, plan.Links, m.snap)

	if initial {
		slog.Info("Matching inputs", "count", len(classification.Inputs))
		for _, n := range classification.Inputs {
			slog.Debug("Input", "id", n.ID, "description", n.Description)
		}
		outputs := 0
		if classification.Output != nil {
			outputs = 1
			slog.Debug("Output", "id", classification.Output.ID, "description", classification.Output.Description)
		}
		slog.Info("Matching outputs", "count", outputs)
		if m.reconciler.OwnedCount() > 0 {
			slog.Info("Mixer links established!", "links", m.reconciler.OwnedCount())
		}
	} else if result.Created > 0 || result.Removed > 0 || result.Failed > 0 {
		slog.Info("Reconciled graph change",
			"created", result.Created, "removed", result.Removed, "failed", result.Failed,
			"owned", m.reconciler.OwnedCount())
	}

	m.updateStatus(nodes, classification)
	m.bus.Publish(Event{Type: EventGraphRefreshed, Payload: map[string]int{
		"nodes":   len(nodes),
		"inputs":  len(classification.Inputs),
		"outputs": boolToInt(classification.Output != nil),
		"links":   m.reconciler.OwnedCount(),
	}})
}

func (m *Mixer) updateStatus(nodes []*domain.Node, c domain.Classification) {
	inputIDs := make([]uint32, 0, len(c.Inputs))
	for _, n := range c.Inputs {
		inputIDs = append(inputIDs, n.ID)
	}
	var outputID uint32
	if c.Output != nil {
		outputID = c.Output.ID
	}

	m.mu.Lock()
	m.status = Status{
		Nodes:      nodes,
		InputIDs:   inputIDs,
		OutputID:   outputID,
		OwnedLinks: m.reconciler.Owned(),
		Passes:     m.status.Passes + 1,
		LastPass:   time.Now(),
	}
	m.mu.Unlock()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
