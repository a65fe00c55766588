package aggregate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/getsentry/callgraph/internal/calltree"
	"github.com/getsentry/callgraph/internal/measurements"
	"github.com/getsentry/callgraph/internal/metrics"
	"github.com/getsentry/callgraph/internal/nodetree"
	"github.com/getsentry/callgraph/internal/summary"
)

// Session aggregates the call trees of one report. It owns the method
// registry, so nothing is shared between two sessions. A session is not
// safe for concurrent use.
type Session struct {
	ID       string
	Modes    []measurements.Mode
	Registry *calltree.Registry

	tracked []*calltree.Node
	threads map[*calltree.Node][]string
}

func NewSession(modes []measurements.Mode) *Session {
	return &Session{
		ID:       uuid.New().String(),
		Modes:    modes,
		Registry: calltree.NewRegistry(),
		threads:  make(map[*calltree.Node][]string),
	}
}

func (s *Session) Dimensions() int {
	return len(s.Modes)
}

// AddProfile adds every thread of p. The profile must have been measured
// with the same modes as the session. Either every thread is added or none
// is.
func (s *Session) AddProfile(p nodetree.Profile) error {
	modes, err := p.Modes()
	if err != nil {
		return err
	}
	if !sameModes(modes, s.Modes) {
		return fmt.Errorf("aggregate: %w: profile %s measures %v, session measures %v", measurements.ErrDimensionMismatch, p.ID, modes, s.Modes)
	}
	roots := make([]*calltree.Node, 0, len(p.Threads))
	for _, t := range p.Threads {
		root, err := s.build(t)
		if err != nil {
			for _, r := range roots {
				r.Release()
			}
			return fmt.Errorf("aggregate: profile %s: %w", p.ID, err)
		}
		roots = append(roots, root)
	}
	for i, t := range p.Threads {
		s.track(t, roots[i])
	}
	return nil
}

// AddThread builds the raw tree of t and tracks its root. On error the
// session is left unchanged.
func (s *Session) AddThread(t nodetree.Thread) (*calltree.Node, error) {
	root, err := s.build(t)
	if err != nil {
		return nil, err
	}
	s.track(t, root)
	return root, nil
}

func (s *Session) build(t nodetree.Thread) (*calltree.Node, error) {
	root, err := nodetree.Build(s.Registry, t.Root, s.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("thread %s: %w", t.ID, err)
	}
	if err := calltree.Validate(root); err != nil {
		root.Release()
		return nil, fmt.Errorf("thread %s: %w", t.ID, err)
	}
	return root, nil
}

func (s *Session) track(t nodetree.Thread, root *calltree.Node) {
	s.tracked = append(s.tracked, root)
	s.threads[root] = append(s.threads[root], t.ID)
	log.Debug().
		Str("session_id", s.ID).
		Str("thread_id", t.ID).
		Str("root", root.CallSequence()).
		Msg("thread added")
}

// Track adds nodes built outside of AddThread. They must be registered in
// s.Registry and can be at any depth of any tree.
func (s *Session) Track(nodes ...*calltree.Node) {
	s.tracked = append(s.tracked, nodes...)
}

// Roots returns the tracked nodes that are not nested in another tracked
// node.
func (s *Session) Roots() []*calltree.Node {
	return calltree.RootsOf(s.tracked)
}

// Consolidate merges every top level node into the first one seen for the
// same method, and returns the surviving nodes in the order they were first
// tracked. Nested tracked nodes are covered by their ancestor and are not
// merged on their own.
func (s *Session) Consolidate() ([]*calltree.Node, error) {
	frontier := s.Roots()
	position := make(map[*calltree.Node]int, len(s.tracked))
	for i, n := range s.tracked {
		if _, ok := position[n]; !ok {
			position[n] = i
		}
	}
	sortByPosition(frontier, position)

	survivors := make([]*calltree.Node, 0, len(frontier))
	byMethod := make(map[uint64]*calltree.Node, len(frontier))
	for _, n := range frontier {
		survivor, ok := byMethod[n.Target.ID]
		if !ok {
			byMethod[n.Target.ID] = n
			survivors = append(survivors, n)
			continue
		}
		if err := survivor.MergeCallTree(n); err != nil {
			return nil, err
		}
		n.Detach()
		s.threads[survivor] = append(s.threads[survivor], s.threads[n]...)
		delete(s.threads, n)
		log.Debug().
			Str("session_id", s.ID).
			Str("root", survivor.CallSequence()).
			Uint64("called", survivor.Called).
			Msg("call trees merged")
	}
	for _, n := range survivors {
		if err := calltree.Validate(n); err != nil {
			return nil, err
		}
	}
	s.tracked = survivors
	log.Info().
		Str("session_id", s.ID).
		Int("roots", len(survivors)).
		Int("methods", len(s.Registry.Methods())).
		Msg("call trees consolidated")
	return survivors, nil
}

// Threads returns the IDs of the threads folded into n.
func (s *Session) Threads(n *calltree.Node) []string {
	return s.threads[n]
}

// Summaries describes every top level node.
func (s *Session) Summaries() []summary.Summary {
	roots := s.Roots()
	summaries := make([]summary.Summary, 0, len(roots))
	for _, n := range roots {
		summaries = append(summaries, summary.FromNode(s.ID, n, s.Modes, s.threads[n]))
	}
	return summaries
}

// Metrics computes method metrics for every measurement mode, keyed by mode
// name.
func (s *Session) Metrics(maxUniqueMethods uint) map[string][]metrics.MethodMetrics {
	m := make(map[string][]metrics.MethodMetrics, len(s.Modes))
	for i, mode := range s.Modes {
		m[mode.String()] = metrics.NewAggregator(maxUniqueMethods, i).FromRegistry(s.Registry)
	}
	return m
}

// Profile converts the top level nodes back to their raw form, one thread
// per node.
func (s *Session) Profile() nodetree.Profile {
	p := nodetree.Profile{
		ID:       s.ID,
		Measures: make([]string, 0, len(s.Modes)),
	}
	for _, m := range s.Modes {
		p.Measures = append(p.Measures, m.String())
	}
	for _, n := range s.Roots() {
		p.Threads = append(p.Threads, nodetree.Thread{
			ID:   strings.Join(s.threads[n], ","),
			Name: n.Target.FullName(),
			Root: nodetree.FromCallTree(n),
		})
	}
	return p
}

func sameModes(a, b []measurements.Mode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
