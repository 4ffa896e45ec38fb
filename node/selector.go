package node

import (
	"sync/atomic"
	"time"
)

const (
	// MaxConsecutiveFailures retires a node permanently for the process
	MaxConsecutiveFailures = 5
	// RecoveryWindow quiet time per consecutive failure before a node is
	// eligible again
	RecoveryWindow = 60 * time.Second
)

// Selector round-robin over healthy nodes
type Selector struct {
	registry *Registry
	counter  atomic.Uint64
	now      func() time.Time
}

type SelectorOption func(*Selector)

// WithClock replace time.Now
func WithClock(now func() time.Time) SelectorOption {
	return func(s *Selector) {
		s.now = now
	}
}

func NewSelector(registry *Registry, opts ...SelectorOption) *Selector {
	s := &Selector{registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry the nodes this selector picks from
func (s *Selector) Registry() *Registry {
	return s.registry
}

// IsAvailable see Registry.IsAvailable
func (s *Selector) IsAvailable() bool {
	return s.registry.IsAvailable()
}

// SelectNode next node for an upload. Prefers eligible nodes; when none
// is eligible it falls back to active nodes still in backoff so a request
// is still tried. Retired nodes are never returned. Returns nil when no
// node is active.
func (s *Selector) SelectNode() *Node {
	nodes := s.registry.Nodes()
	if len(nodes) == 0 {
		return nil
	}

	now := s.now()
	eligible := make([]*Node, 0, len(nodes))
	active := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.Active() {
			continue
		}
		active = append(active, n)
		if s.eligible(n, now) {
			eligible = append(eligible, n)
		}
	}

	idx := s.counter.Add(1) - 1
	switch {
	case len(eligible) > 0:
		return eligible[idx%uint64(len(eligible))]
	case len(active) > 0:
		return active[idx%uint64(len(active))]
	default:
		return nil
	}
}

// eligible active and quiet for RecoveryWindow per consecutive failure.
// A node that passes after failures starts with a clean streak.
func (s *Selector) eligible(n *Node, now time.Time) bool {
	if !n.Active() {
		return false
	}
	failures := n.ConsecutiveFailures()
	if failures == 0 {
		return true
	}
	if now.Sub(n.LastFailureAt()) < time.Duration(failures)*RecoveryWindow {
		return false
	}
	n.consecutiveFailures.Store(0)
	return true
}

// RecordFailure count a failed upload to n, retiring it at the threshold
func (s *Selector) RecordFailure(n *Node) {
	failures := n.consecutiveFailures.Add(1)
	n.totalFailures.Add(1)
	n.lastFailureAt.Store(s.now().UnixNano())
	if failures >= MaxConsecutiveFailures {
		n.active.Store(false)
	}
}

// RecordSuccess clear the failure streak. A retired node stays retired.
func (s *Selector) RecordSuccess(n *Node) {
	n.consecutiveFailures.Store(0)
}
