package calltree

import (
	"fmt"
	"strings"

	"github.com/getsentry/callgraph/internal/errorutil"
	"github.com/getsentry/callgraph/internal/measurements"
)

// ErrInconsistentCallTree is returned when a node has more than one child
// targeting the same method.
var ErrInconsistentCallTree = fmt.Errorf("%w: inconsistent call tree", errorutil.ErrDataIntegrity)

// Node is one recorded invocation in a call tree. A node owns its children;
// the parent link is only used to walk up the tree.
type Node struct {
	Target       *Method
	Called       uint64
	Measurements measurements.Vector

	parent   *Node
	children []*Node
	depth    int

	stack        []*Method
	callSequence string
}

// NewRoot creates a root invocation of target and registers it.
func NewRoot(target *Method, called uint64, m measurements.Vector) *Node {
	n := &Node{
		Target:       target,
		Called:       called,
		Measurements: m,
	}
	target.Add(n)
	return n
}

// NewChild appends a new invocation of target to n's children and registers
// it. It does not check whether n already has a child for target; use Call
// for that.
func (n *Node) NewChild(target *Method, called uint64, m measurements.Vector) *Node {
	c := &Node{
		Target:       target,
		Called:       called,
		Measurements: m,
		parent:       n,
		depth:        n.depth + 1,
	}
	n.children = append(n.children, c)
	target.Add(c)
	return c
}

// Call returns the child of n targeting target, creating an empty one if
// there is none.
func (n *Node) Call(target *Method) (*Node, error) {
	c, err := n.findChild(target)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	return n.NewChild(target, 0, measurements.New(n.Measurements.Dimensions())), nil
}

func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the children in the order they were first observed. The
// returned slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

func (n *Node) Depth() int {
	return n.depth
}

func (n *Node) IsRoot() bool {
	return n.parent == nil
}

func (n *Node) TotalTime(i int) float64 {
	return n.Measurements.Total(i)
}

func (n *Node) SelfTime(i int) float64 {
	return n.Measurements.Self(i)
}

func (n *Node) WaitTime(i int) float64 {
	return n.Measurements.Wait(i)
}

// ChildrenTime sums the total time of the direct children. It is computed
// on every call since merges change the children.
func (n *Node) ChildrenTime(i int) float64 {
	var sum float64
	for _, c := range n.children {
		sum += c.TotalTime(i)
	}
	return sum
}

// Stack returns the targets from the root of the tree down to n.
func (n *Node) Stack() []*Method {
	if n.stack != nil {
		return n.stack
	}
	var methods []*Method
	for c := n; c != nil; c = c.parent {
		methods = append(methods, c.Target)
	}
	for i, j := 0, len(methods)-1; i < j; i, j = i+1, j-1 {
		methods[i], methods[j] = methods[j], methods[i]
	}
	n.stack = methods
	return n.stack
}

// CallSequence joins the names of the stacked targets with "->".
func (n *Node) CallSequence() string {
	if n.callSequence != "" {
		return n.callSequence
	}
	stack := n.Stack()
	names := make([]string, 0, len(stack))
	for _, m := range stack {
		names = append(names, m.FullName())
	}
	n.callSequence = strings.Join(names, "->")
	return n.callSequence
}

// DescendentOf reports whether other is a strict ancestor of n.
func (n *Node) DescendentOf(other *Node) bool {
	if other == nil {
		return false
	}
	p := n.parent
	// Depth decreases while climbing, so nothing above other's depth can
	// match.
	for p != nil && p != other && p.depth > other.depth {
		p = p.parent
	}
	return p == other
}

// FindCall returns the child of n targeting the same method as other, or
// nil if there is none.
func (n *Node) FindCall(other *Node) (*Node, error) {
	return n.findChild(other.Target)
}

func (n *Node) findChild(target *Method) (*Node, error) {
	var match *Node
	for _, c := range n.children {
		if c.Target.ID != target.ID {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("calltree: %w: %s has more than one child for %s", ErrInconsistentCallTree, n.CallSequence(), target.FullName())
		}
		match = c
	}
	return match, nil
}

// Detach removes n from its parent's children and makes it a root. n stays
// registered with its target.
func (n *Node) Detach() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.setParent(nil)
}

// Release detaches n and deregisters every node of its subtree from its
// target. It discards a tree that must not take part in the aggregation.
func (n *Node) Release() {
	n.Detach()
	pending := []*Node{n}
	for len(pending) > 0 {
		c := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		c.Target.Remove(c)
		pending = append(pending, c.children...)
	}
}

// adopt moves c, with its whole subtree, under n.
func (n *Node) adopt(c *Node) {
	n.children = append(n.children, c)
	c.setParent(n)
}

// setParent links n to parent and refreshes the depth and the cached paths
// of the subtree rooted at n, since all of them depend on the ancestors.
func (n *Node) setParent(parent *Node) {
	n.parent = parent
	depth := 0
	if parent != nil {
		depth = parent.depth + 1
	}
	n.depth = depth
	pending := []*Node{n}
	for len(pending) > 0 {
		c := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if c != n {
			c.depth = c.parent.depth + 1
		}
		c.stack = nil
		c.callSequence = ""
		pending = append(pending, c.children...)
	}
}

func (n *Node) String() string {
	return fmt.Sprintf("%s (c: %d, tt: %g, st: %g, ct: %g)", n.Target.FullName(), n.Called, n.TotalTime(0), n.SelfTime(0), n.ChildrenTime(0))
}
