// Package node keeps the set of backend nodes and their health, and picks
// the node the next upload goes to.
package node

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"bot-file-system/conf"
	"bot-file-system/storage"
)

// Node one backend blob sink with its process-local health counters.
// Counters are updated without coordination between them; a lost update
// under concurrent failures is acceptable.
type Node struct {
	ID          string
	Kind        string
	DisplayName string
	Sink        storage.Sink

	active              atomic.Bool
	consecutiveFailures atomic.Int32
	lastFailureAt       atomic.Int64 // unix nanos, 0 = never failed
	totalFailures       atomic.Int64
}

// NewNode create an active node around a sink
func NewNode(id, displayName string, sink storage.Sink) *Node {
	if displayName == "" {
		displayName = id
	}
	n := &Node{ID: id, DisplayName: displayName, Sink: sink}
	n.active.Store(true)
	return n
}

func (n *Node) Active() bool {
	return n.active.Load()
}

func (n *Node) ConsecutiveFailures() int {
	return int(n.consecutiveFailures.Load())
}

func (n *Node) TotalFailures() int64 {
	return n.totalFailures.Load()
}

// LastFailureAt zero time when the node never failed
func (n *Node) LastFailureAt() time.Time {
	ns := n.lastFailureAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Status health snapshot of a node, safe to serialize
type Status struct {
	ID                  string     `json:"id"`
	Kind                string     `json:"kind"`
	DisplayName         string     `json:"displayName"`
	Active              bool       `json:"active"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	TotalFailures       int64      `json:"totalFailures"`
	LastFailureAt       *time.Time `json:"lastFailureAt,omitempty"`
}

func (n *Node) Status() Status {
	st := Status{
		ID:                  n.ID,
		Kind:                n.Kind,
		DisplayName:         n.DisplayName,
		Active:              n.Active(),
		ConsecutiveFailures: n.ConsecutiveFailures(),
		TotalFailures:       n.TotalFailures(),
	}
	if at := n.LastFailureAt(); !at.IsZero() {
		st.LastFailureAt = &at
	}
	return st
}

// Registry fixed, ordered set of nodes built once at startup
type Registry struct {
	nodes []*Node
	byID  map[string]*Node
}

// NewRegistry build nodes from configuration. Entries without a credential
// are skipped; a sink that cannot be built fails the whole registry.
func NewRegistry(cfgs []conf.NodeConfig, factory storage.Factory) (*Registry, error) {
	if factory == nil {
		factory = storage.NewSink
	}
	var nodes []*Node
	for _, cfg := range cfgs {
		if cfg.Credential == "" {
			log.Printf("Node %s has no credential, skipped", cfg.ID)
			continue
		}
		sink, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create sink for node %s: %w", cfg.ID, err)
		}
		n := NewNode(cfg.ID, cfg.DisplayName, sink)
		n.Kind = cfg.Kind
		nodes = append(nodes, n)
	}
	return NewRegistryFromNodes(nodes...)
}

// NewRegistryFromNodes build a registry from ready nodes
func NewRegistryFromNodes(nodes ...*Node) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Node, len(nodes))}
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node without id")
		}
		if _, dup := r.byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %s", n.ID)
		}
		r.byID[n.ID] = n
		r.nodes = append(r.nodes, n)
	}
	return r, nil
}

// Nodes all nodes in configuration order
func (r *Registry) Nodes() []*Node {
	return r.nodes
}

// Get node by id, nil when unknown
func (r *Registry) Get(id string) *Node {
	return r.byID[id]
}

func (r *Registry) Len() int {
	return len(r.nodes)
}

// IsAvailable at least one node has not been retired
func (r *Registry) IsAvailable() bool {
	for _, n := range r.nodes {
		if n.Active() {
			return true
		}
	}
	return false
}

// Snapshot health of every node
func (r *Registry) Snapshot() []Status {
	out := make([]Status, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n.Status())
	}
	return out
}
