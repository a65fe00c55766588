package calltree

import (
	"errors"
	"testing"

	"github.com/getsentry/callgraph/internal/errorutil"
	"github.com/getsentry/callgraph/internal/frame"
	"github.com/getsentry/callgraph/internal/measurements"
	"github.com/getsentry/callgraph/internal/testutil"
)

type shapeNode struct {
	Name     string
	Depth    int
	Called   uint64
	Total    float64
	Children []shapeNode
}

func shape(n *Node) shapeNode {
	s := shapeNode{
		Name:   n.Target.FullName(),
		Depth:  n.Depth(),
		Called: n.Called,
		Total:  n.TotalTime(0),
	}
	for _, c := range n.Children() {
		s.Children = append(s.Children, shape(c))
	}
	return s
}

func names(nodes []*Node) []string {
	s := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s = append(s, n.CallSequence())
	}
	return s
}

func assertSameNodes(t *testing.T, got, want []*Node) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d nodes, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("node %d is %s, want %s", i, got[i], want[i])
		}
	}
}

func vec(total float64) measurements.Vector {
	return measurements.Vector{{Total: total, Self: total / 2}}
}

func method(r *Registry, name string) *Method {
	return r.Method(frame.Frame{Package: "app", Function: name})
}

func TestStackAndCallSequence(t *testing.T) {
	r := NewRegistry()
	root := NewRoot(method(r, "main"), 1, vec(10))
	a := root.NewChild(method(r, "a"), 1, vec(5))
	b := a.NewChild(method(r, "b"), 1, vec(2))

	if got, want := b.CallSequence(), "app#main->app#a->app#b"; got != want {
		t.Fatalf("CallSequence() = %q, want %q", got, want)
	}
	first := b.Stack()
	second := b.Stack()
	if len(first) != 3 || &first[0] != &second[0] {
		t.Fatal("repeated calls should return the cached stack")
	}
	if b.CallSequence() != "app#main->app#a->app#b" {
		t.Fatal("repeated calls should return the same call sequence")
	}

	other := NewRoot(method(r, "worker"), 1, vec(3))
	a.Detach()
	other.adopt(a)
	if got, want := b.CallSequence(), "app#worker->app#a->app#b"; got != want {
		t.Fatalf("CallSequence() after reparenting = %q, want %q", got, want)
	}
	if b.Depth() != 2 || a.Depth() != 1 {
		t.Fatalf("unexpected depths after reparenting: a=%d b=%d", a.Depth(), b.Depth())
	}
	if len(root.Children()) != 0 {
		t.Fatal("detached node should be gone from its old parent")
	}
}

func TestDescendentOf(t *testing.T) {
	r := NewRegistry()
	root := NewRoot(method(r, "r"), 1, vec(1))
	a := root.NewChild(method(r, "a"), 1, vec(1))
	b := a.NewChild(method(r, "b"), 1, vec(1))
	c := b.NewChild(method(r, "c"), 1, vec(1))
	d := c.NewChild(method(r, "d"), 1, vec(1))
	sibling := root.NewChild(method(r, "s"), 1, vec(1))
	otherRoot := NewRoot(method(r, "r"), 1, vec(1))

	tests := []struct {
		name  string
		node  *Node
		other *Node
		want  bool
	}{
		{"leaf of root", d, root, true},
		{"leaf of middle", d, b, true},
		{"root of leaf", root, d, false},
		{"self", d, d, false},
		{"sibling branch", d, sibling, false},
		{"other tree", d, otherRoot, false},
		{"direct child", a, root, true},
		{"nil", d, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.DescendentOf(tt.other); got != tt.want {
				t.Fatalf("DescendentOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRootsOf(t *testing.T) {
	reg := NewRegistry()
	r := NewRoot(method(reg, "r"), 1, vec(1))
	c1 := r.NewChild(method(reg, "c1"), 1, vec(1))
	c2 := r.NewChild(method(reg, "c2"), 1, vec(1))
	g1 := c1.NewChild(method(reg, "g1"), 1, vec(1))
	other := NewRoot(method(reg, "o"), 1, vec(1))
	og := other.NewChild(method(reg, "og"), 1, vec(1))

	tests := []struct {
		name  string
		nodes []*Node
		want  []string
	}{
		{
			name:  "children and grandchild",
			nodes: []*Node{c1, c2, g1},
			want:  []string{"app#r->app#c1", "app#r->app#c2"},
		},
		{
			name:  "whole tree",
			nodes: []*Node{r, c1, c2, g1},
			want:  []string{"app#r"},
		},
		{
			name:  "unordered input across trees",
			nodes: []*Node{g1, og, r, other, c2},
			want:  []string{"app#r", "app#o"},
		},
		{
			name:  "non contiguous nodes",
			nodes: []*Node{g1, c2},
			want:  []string{"app#r->app#c1->app#g1", "app#r->app#c2"},
		},
		{
			name:  "duplicates",
			nodes: []*Node{c1, c1, g1},
			want:  []string{"app#r->app#c1"},
		},
		{
			name:  "empty",
			nodes: nil,
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(RootsOf(tt.nodes))
			if diff := testutil.Diff(got, tt.want); diff != "" {
				t.Fatalf("Result mismatch: got - want +\n%s", diff)
			}
		})
	}
}

func TestCall(t *testing.T) {
	r := NewRegistry()
	root := NewRoot(method(r, "main"), 1, vec(1))
	a, err := root.Call(method(r, "a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := root.Call(method(r, "a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != again {
		t.Fatal("Call should return the existing child")
	}
	if a.Measurements.Dimensions() != 1 {
		t.Fatalf("new child should have the parent's dimensions, got %d", a.Measurements.Dimensions())
	}

	root.NewChild(method(r, "a"), 1, vec(1))
	if _, err := root.Call(method(r, "a")); !errors.Is(err, ErrInconsistentCallTree) {
		t.Fatalf("expected an inconsistent call tree error, got %v", err)
	}
}

func TestChildrenTimeAndString(t *testing.T) {
	r := NewRegistry()
	root := NewRoot(method(r, "main"), 3, vec(10))
	root.NewChild(method(r, "a"), 1, vec(4))
	root.NewChild(method(r, "b"), 1, vec(2))

	if got := root.ChildrenTime(0); got != 6 {
		t.Fatalf("ChildrenTime() = %v, want 6", got)
	}
	root.NewChild(method(r, "c"), 1, vec(1))
	if got := root.ChildrenTime(0); got != 7 {
		t.Fatalf("ChildrenTime() should follow the current children, got %v", got)
	}
	if got, want := root.String(), "app#main (c: 3, tt: 10, st: 5, ct: 7)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestMethodTotals(t *testing.T) {
	r := NewRegistry()
	fib := method(r, "fib")
	root := NewRoot(method(r, "main"), 1, vec(20))
	outer := root.NewChild(fib, 1, measurements.Vector{{Total: 10, Self: 4}})
	inner := outer.NewChild(fib, 2, measurements.Vector{{Total: 6, Self: 6}})
	root.NewChild(method(r, "other"), 1, vec(2)).NewChild(fib, 1, measurements.Vector{{Total: 1, Self: 1}})

	if got := names(fib.Roots()); len(got) != 2 {
		t.Fatalf("expected two outermost invocations, got %v", got)
	}
	if got := fib.Called(); got != 4 {
		t.Fatalf("Called() = %d, want 4", got)
	}
	if got := fib.TotalTime(0); got != 11 {
		t.Fatalf("TotalTime() = %v, want 11", got)
	}
	if got := fib.SelfTime(0); got != 11 {
		t.Fatalf("SelfTime() = %v, want 11", got)
	}
	if got := fib.ChildrenTime(0); got != 6 {
		t.Fatalf("ChildrenTime() = %v, want 6", got)
	}
	if fib.WaitTime(0) != 0 {
		t.Fatal("WaitTime() should be zero")
	}
	if !fib.Contains(inner) || fib.Len() != 3 {
		t.Fatal("every invocation should be registered")
	}
}

func TestMethodTotalsFollowInsertionOrder(t *testing.T) {
	// 1e16 + 1 rounds back to 1e16, so only the insertion order sums to 0.
	values := []float64{1e16, 1, -1e16}
	for i := 0; i < 20; i++ {
		r := NewRegistry()
		m := method(r, "main")
		for _, v := range values {
			NewRoot(m, 1, measurements.Vector{{Total: v, Self: v, Wait: v}})
		}
		if got := m.SelfTime(0); got != 0 {
			t.Fatalf("SelfTime() = %v, want 0", got)
		}
		if got := m.WaitTime(0); got != 0 {
			t.Fatalf("WaitTime() = %v, want 0", got)
		}
		if got := m.TotalTime(0); got != 0 {
			t.Fatalf("TotalTime() = %v, want 0", got)
		}
	}
}

func TestRelease(t *testing.T) {
	r := NewRegistry()
	root := NewRoot(method(r, "main"), 1, vec(4))
	a := root.NewChild(method(r, "a"), 1, vec(2))
	a.NewChild(method(r, "b"), 1, vec(1))
	keep := root.NewChild(method(r, "c"), 1, vec(1))

	a.Release()
	if a.Parent() != nil || len(root.Children()) != 1 || root.Children()[0] != keep {
		t.Fatal("released node should be detached from its parent")
	}
	assertSameNodes(t, r.Nodes(), []*Node{root, keep})
	if err := Validate(root); err != nil {
		t.Fatalf("remaining tree is invalid: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := r.Method(frame.Frame{Package: "app", Function: "a", Line: 1})
	again := r.Method(frame.Frame{Package: "app", Function: "a", Line: 7})
	if a != again {
		t.Fatal("methods should be interned by identity")
	}
	b := method(r, "b")
	if got, ok := r.Lookup(b.ID); !ok || got != b {
		t.Fatal("Lookup should find interned methods")
	}
	if got := len(r.Methods()); got != 2 {
		t.Fatalf("expected 2 methods, got %d", got)
	}

	n1 := NewRoot(a, 1, vec(1))
	n2 := NewRoot(b, 1, vec(1))
	n3 := NewRoot(a, 1, vec(1))
	assertSameNodes(t, r.Nodes(), []*Node{n1, n3, n2})
	a.Remove(n1)
	a.Add(n1)
	assertSameNodes(t, a.Nodes(), []*Node{n3, n1})
}

func TestValidate(t *testing.T) {
	r := NewRegistry()
	root := NewRoot(method(r, "main"), 1, vec(1))
	a := root.NewChild(method(r, "a"), 1, vec(1))
	a.NewChild(method(r, "b"), 1, vec(1))
	if err := Validate(root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := root.NewChild(method(r, "a"), 1, vec(1))
	if err := Validate(root); !errors.Is(err, ErrInconsistentCallTree) {
		t.Fatalf("expected an inconsistent call tree error, got %v", err)
	}
	dup.Detach()

	a.Target.Remove(a)
	if err := Validate(root); !errors.Is(err, errorutil.ErrDataIntegrity) {
		t.Fatalf("expected a data integrity error, got %v", err)
	}
}
