package nodetree

import (
	"fmt"

	"github.com/getsentry/callgraph/internal/calltree"
	"github.com/getsentry/callgraph/internal/errorutil"
	"github.com/getsentry/callgraph/internal/frame"
	"github.com/getsentry/callgraph/internal/measurements"
)

type (
	// Node is a raw invocation as recorded by the measurement engine.
	Node struct {
		Frame        frame.Frame         `json:"frame"`
		Called       uint64              `json:"called"`
		Measurements measurements.Vector `json:"measurements"`
		Children     []*Node             `json:"children,omitempty"`
	}

	// Thread is the call tree recorded for one thread or run.
	Thread struct {
		ID   string `json:"thread_id"`
		Name string `json:"thread_name,omitempty"`
		Root *Node  `json:"root"`
	}

	// Profile is what the measurement engine produces for one run.
	Profile struct {
		ID       string   `json:"profile_id"`
		Measures []string `json:"measures"`
		Threads  []Thread `json:"threads"`
	}
)

// Modes returns the measure mode of each dimension.
func (p Profile) Modes() ([]measurements.Mode, error) {
	return measurements.ParseModes(p.Measures)
}

// ErrMissingNode is returned for a thread without a root or a null child.
var ErrMissingNode = fmt.Errorf("%w: missing node", errorutil.ErrDataIntegrity)

// Build turns a raw tree into call tree nodes registered in reg. Every node
// must carry dimensions measurements. On error, nothing is left registered
// in reg.
func Build(reg *calltree.Registry, root *Node, dimensions int) (*calltree.Node, error) {
	if root == nil {
		return nil, fmt.Errorf("nodetree: %w: root", ErrMissingNode)
	}
	if err := checkDimensions(root, dimensions); err != nil {
		return nil, err
	}
	type pair struct {
		raw    *Node
		parent *calltree.Node
	}
	built := calltree.NewRoot(reg.Method(root.Frame), root.Called, root.Measurements.Clone())
	pending := make([]pair, 0, len(root.Children))
	for i := len(root.Children) - 1; i >= 0; i-- {
		pending = append(pending, pair{raw: root.Children[i], parent: built})
	}
	for len(pending) > 0 {
		p := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if p.raw == nil {
			built.Release()
			return nil, fmt.Errorf("nodetree: %w: child of %s", ErrMissingNode, p.parent.CallSequence())
		}
		if err := checkDimensions(p.raw, dimensions); err != nil {
			built.Release()
			return nil, err
		}
		n := p.parent.NewChild(reg.Method(p.raw.Frame), p.raw.Called, p.raw.Measurements.Clone())
		// Pushed in reverse so children keep their recorded order.
		for i := len(p.raw.Children) - 1; i >= 0; i-- {
			pending = append(pending, pair{raw: p.raw.Children[i], parent: n})
		}
	}
	return built, nil
}

func checkDimensions(n *Node, dimensions int) error {
	if n.Measurements.Dimensions() != dimensions {
		return fmt.Errorf("nodetree: %w: %s has %d dimensions, expected %d", measurements.ErrDimensionMismatch, n.Frame.FullName(), n.Measurements.Dimensions(), dimensions)
	}
	return nil
}

// FromCallTree converts a call tree back to its raw form.
func FromCallTree(root *calltree.Node) *Node {
	type pair struct {
		src *calltree.Node
		dst *Node
	}
	out := fromCallNode(root)
	pending := []pair{{src: root, dst: out}}
	for len(pending) > 0 {
		p := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		for _, c := range p.src.Children() {
			n := fromCallNode(c)
			p.dst.Children = append(p.dst.Children, n)
			pending = append(pending, pair{src: c, dst: n})
		}
	}
	return out
}

func fromCallNode(n *calltree.Node) *Node {
	return &Node{
		Frame:        n.Target.Frame,
		Called:       n.Called,
		Measurements: n.Measurements.Clone(),
	}
}
