package calltree

import (
	"sort"

	"github.com/getsentry/callgraph/internal/frame"
)

// Method is the logical identity of a profiled callable. It keeps track of
// every live Node targeting it, across all the trees of one aggregation.
type Method struct {
	Frame frame.Frame
	ID    uint64

	nodes map[*Node]uint64
	seq   uint64
}

func (m *Method) FullName() string {
	return m.Frame.FullName()
}

// Add registers n as an invocation of m. Adding a node twice keeps its
// original position.
func (m *Method) Add(n *Node) {
	if _, ok := m.nodes[n]; ok {
		return
	}
	if m.nodes == nil {
		m.nodes = make(map[*Node]uint64)
	}
	m.seq++
	m.nodes[n] = m.seq
}

// Remove deregisters n. Removing an unknown node is a no-op.
func (m *Method) Remove(n *Node) {
	delete(m.nodes, n)
}

func (m *Method) Contains(n *Node) bool {
	_, ok := m.nodes[n]
	return ok
}

func (m *Method) Len() int {
	return len(m.nodes)
}

// Nodes returns the registered nodes in the order they were added.
func (m *Method) Nodes() []*Node {
	nodes := make([]*Node, 0, len(m.nodes))
	for n := range m.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return m.nodes[nodes[i]] < m.nodes[nodes[j]]
	})
	return nodes
}

// Roots returns the invocations of m that are not nested in another
// invocation of m, so recursive calls are only counted once.
func (m *Method) Roots() []*Node {
	return RootsOf(m.Nodes())
}

// Called returns the number of times m was invoked.
func (m *Method) Called() uint64 {
	var called uint64
	for _, n := range m.Nodes() {
		called += n.Called
	}
	return called
}

// TotalTime sums the total time of the outermost invocations of m.
func (m *Method) TotalTime(i int) float64 {
	var sum float64
	for _, n := range m.Roots() {
		sum += n.TotalTime(i)
	}
	return sum
}

func (m *Method) SelfTime(i int) float64 {
	var sum float64
	for _, n := range m.Nodes() {
		sum += n.SelfTime(i)
	}
	return sum
}

func (m *Method) WaitTime(i int) float64 {
	var sum float64
	for _, n := range m.Nodes() {
		sum += n.WaitTime(i)
	}
	return sum
}

func (m *Method) ChildrenTime(i int) float64 {
	var sum float64
	for _, n := range m.Roots() {
		sum += n.ChildrenTime(i)
	}
	return sum
}

// Registry interns methods for one aggregation. It is not safe for
// concurrent use.
type Registry struct {
	methods map[uint64]*Method
	order   []*Method
}

func NewRegistry() *Registry {
	return &Registry{
		methods: make(map[uint64]*Method),
	}
}

// Method returns the method identified by f, creating it on first use.
func (r *Registry) Method(f frame.Frame) *Method {
	id := f.Fingerprint()
	if m, ok := r.methods[id]; ok {
		return m
	}
	m := &Method{Frame: f, ID: id}
	r.methods[id] = m
	r.order = append(r.order, m)
	return m
}

func (r *Registry) Lookup(id uint64) (*Method, bool) {
	m, ok := r.methods[id]
	return m, ok
}

// Methods returns all interned methods in the order they were first seen.
func (r *Registry) Methods() []*Method {
	methods := make([]*Method, len(r.order))
	copy(methods, r.order)
	return methods
}

// Nodes returns every registered node of every method.
func (r *Registry) Nodes() []*Node {
	var nodes []*Node
	for _, m := range r.order {
		nodes = append(nodes, m.Nodes()...)
	}
	return nodes
}
