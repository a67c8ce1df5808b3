package service

import (
	"context"
	"errors"
	"log/slog"

	"piemixer/internal/adapter"
	"piemixer/internal/domain"
	"piemixer/internal/graph"
	"piemixer/internal/metrics"
)

// LinkStore persists link ownership across process restarts. Established
// links deliberately outlive the process, so on the next start the mixer
// must know which of the graph's links are its own.
type LinkStore interface {
	SaveLink(ctx context.Context, link domain.LinkKey) error
	DeleteLink(ctx context.Context, link domain.LinkKey) error
	ListLinks(ctx context.Context) ([]domain.LinkKey, error)
}

// Reconciler converges the links established in the external graph toward a
// desired set. It only ever creates or removes links it owns; links made by
// anyone else are invisible to it.
type Reconciler struct {
	client adapter.GraphClient
	store  LinkStore
	bus    *EventBus
	owned  domain.LinkSet

	// adopted links not yet confirmed against the graph itself; the store
	// only proves the previous process made them, not that they survived
	unverified domain.LinkSet
}

// NewReconciler creates a reconciler with an empty owned set
func NewReconciler(client adapter.GraphClient, store LinkStore, bus *EventBus) *Reconciler {
	return &Reconciler{
		client:     client,
		store:      store,
		bus:        bus,
		owned:      domain.NewLinkSet(),
		unverified: domain.NewLinkSet(),
	}
}

// ReconcileResult summarizes one reconciliation pass
type ReconcileResult struct {
	Created int `json:"created"`
	Removed int `json:"removed"`
	Failed  int `json:"failed"`
}

// Restore adopts ownership persisted by a previous run. Links whose
// endpoints no longer exist in the current snapshot are dropped: their
// identifiers belong to a retired graph generation and must not be used
// in link requests. Adopted links are marked unverified; the next
// reconciliation pass re-asserts each one, since the link may have been
// removed externally while the process was down even though both ports
// survived.
func (r *Reconciler) Restore(ctx context.Context, snap *graph.Snapshot) error {
	links, err := r.store.ListLinks(ctx)
	if err != nil {
		return err
	}

	adopted := 0
	for _, link := range links {
		if !snap.HasLinkEndpoints(link) {
			slog.Debug("Dropping stale owned link", "source", link.SourcePort, "dest", link.DestPort)
			if err := r.store.DeleteLink(ctx, link); err != nil {
				slog.Warn("Failed to delete stale link record", "err", err)
			}
			continue
		}
		r.owned.Add(link)
		r.unverified.Add(link)
		adopted++
	}

	if adopted > 0 {
		slog.Info("Adopted links from previous run", "count", adopted)
	}
	metrics.OwnedLinks.Set(float64(len(r.owned)))
	return nil
}

// Reconcile diffs the desired set against the owned set and issues the
// create and remove requests needed to converge. An unchanged desired set
// costs nothing beyond the diff itself.
//
// Removal is idempotent: a link that is already gone counts as removed.
// Creation is at-least-once: a rejected create stays out of the owned set
// so the next pass retries it.
func (r *Reconciler) Reconcile(ctx context.Context, desired domain.LinkSet, snap *graph.Snapshot) ReconcileResult {
	var result ReconcileResult

	for _, link := range r.owned.Minus(desired) {
		r.removeLink(ctx, link, snap)
		result.Removed++
	}

	for _, link := range desired.Minus(r.owned) {
		if r.createLink(ctx, link) {
			result.Created++
		} else {
			result.Failed++
		}
	}

	// re-assert adopted links once; ErrLinkExists is the expected outcome,
	// anything else means the link vanished while the process was down
	for _, link := range r.unverified.Sorted() {
		r.unverified.Remove(link)
		if !desired.Contains(link) || !r.owned.Contains(link) {
			continue
		}
		if !r.createLink(ctx, link) {
			r.owned.Remove(link)
			if err := r.store.DeleteLink(ctx, link); err != nil {
				slog.Warn("Failed to delete link record", "err", err)
			}
			result.Failed++
		}
	}

	metrics.ReconcilePasses.Inc()
	metrics.OwnedLinks.Set(float64(len(r.owned)))

	if result.Created > 0 || result.Removed > 0 || result.Failed > 0 {
		r.bus.Publish(Event{Type: EventReconcileComplete, Payload: result})
	}
	return result
}

// Owned returns the currently owned links, sorted
func (r *Reconciler) Owned() []domain.LinkKey {
	return r.owned.Sorted()
}

// OwnedCount returns the size of the owned set
func (r *Reconciler) OwnedCount() int {
	return len(r.owned)
}

func (r *Reconciler) removeLink(ctx context.Context, link domain.LinkKey, snap *graph.Snapshot) {
	// A link whose endpoint vanished died with it; asking the graph to
	// remove it would use a stale handle.
	if snap.HasLinkEndpoints(link) {
		err := r.client.RemoveLink(ctx, link)
		switch {
		case err == nil, errors.Is(err, adapter.ErrLinkNotFound):
			// already absent counts as removed
		default:
			slog.Warn("Link removal rejected, dropping ownership anyway",
				"source", link.SourcePort, "dest", link.DestPort, "err", err)
			metrics.LinkFailures.WithLabelValues("remove").Inc()
		}
	}

	r.owned.Remove(link)
	if err := r.store.DeleteLink(ctx, link); err != nil {
		slog.Warn("Failed to delete link record", "err", err)
	}
	metrics.LinksRemoved.Inc()
	slog.Debug("Unlinked", "source", link.SourcePort, "dest", link.DestPort)
	r.bus.Publish(Event{Type: EventLinkRemoved, Payload: link})
}

func (r *Reconciler) createLink(ctx context.Context, link domain.LinkKey) bool {
	err := r.client.CreateLink(ctx, link)
	switch {
	case err == nil:
	case errors.Is(err, adapter.ErrLinkExists):
		// a completion from an earlier pass may have landed late; the link
		// is desired and established, so claim it
		slog.Debug("Link already established", "source", link.SourcePort, "dest", link.DestPort)
	default:
		slog.Warn("Link creation rejected, will retry next pass",
			"source", link.SourcePort, "dest", link.DestPort, "err", err)
		metrics.LinkFailures.WithLabelValues("create").Inc()
		r.bus.Publish(Event{Type: EventLinkFailed, Payload: link})
		return false
	}

	r.owned.Add(link)
	if err := r.store.SaveLink(ctx, link); err != nil {
		slog.Warn("Failed to persist link record", "err", err)
	}
	metrics.LinksCreated.Inc()
	slog.Debug("Linked", "source", link.SourcePort, "dest", link.DestPort)
	r.bus.Publish(Event{Type: EventLinkCreated, Payload: link})
	return true
}
