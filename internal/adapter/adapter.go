package adapter

import (
	"context"
	"errors"

	"piemixer/internal/domain"
)

// Sentinel results for link operations. The graph service performs the
// actual routing; these let the reconciler tell "already converged" apart
// from a real failure.
var (
	// ErrLinkExists means the requested link was already established
	ErrLinkExists = errors.New("link already exists")
	// ErrLinkNotFound means the link to remove was already gone
	ErrLinkNotFound = errors.New("link not found")
)

// EventKind identifies a graph change notification
type EventKind string

const (
	EventNodeAdded EventKind = "node_added"
	EventPortAdded EventKind = "port_added"
	EventRemoved   EventKind = "removed"
)

// Event is one change announced by the graph service. Node is set for
// EventNodeAdded, Port for EventPortAdded. Removals carry only the global
// identifier; the snapshot resolves whether it named a node or a port.
type Event struct {
	Kind EventKind
	Node *domain.Node
	Port *domain.Port
	ID   uint32
}

// GraphClient is the interface to the external media-routing graph. The
// mixer only enumerates, observes, and requests link changes; it never
// owns the graph's objects.
type GraphClient interface {
	// Enumerate returns all current nodes with their ports
	Enumerate(ctx context.Context) ([]domain.Node, error)

	// Monitor subscribes to change notifications. The returned channel is
	// closed when the subscription ends (context cancelled or transport
	// failure); callers decide whether to resubscribe.
	Monitor(ctx context.Context) (<-chan Event, error)

	// CreateLink asks the graph to connect a source port to a destination
	// port. Returns ErrLinkExists if the link is already established.
	CreateLink(ctx context.Context, link domain.LinkKey) error

	// RemoveLink asks the graph to disconnect a port pair. Returns
	// ErrLinkNotFound if the link is already gone.
	RemoveLink(ctx context.Context, link domain.LinkKey) error
}
