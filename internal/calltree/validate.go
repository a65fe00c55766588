package calltree

import (
	"fmt"

	"github.com/getsentry/callgraph/internal/errorutil"
)

// Validate walks the tree rooted at root and checks that no node has two
// children for the same method, that depths grow by one from parent to
// child, and that every node is registered with its target.
func Validate(root *Node) error {
	if root.parent == nil && root.depth != 0 {
		return fmt.Errorf("calltree: %w: root %s has depth %d", errorutil.ErrDataIntegrity, root.Target.FullName(), root.depth)
	}
	pending := []*Node{root}
	for len(pending) > 0 {
		n := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if !n.Target.Contains(n) {
			return fmt.Errorf("calltree: %w: %s is not registered with its method", errorutil.ErrDataIntegrity, n.CallSequence())
		}
		targets := make(map[uint64]struct{}, len(n.children))
		for _, c := range n.children {
			if _, ok := targets[c.Target.ID]; ok {
				return fmt.Errorf("calltree: %w: %s has more than one child for %s", ErrInconsistentCallTree, n.CallSequence(), c.Target.FullName())
			}
			targets[c.Target.ID] = struct{}{}
			if c.parent != n {
				return fmt.Errorf("calltree: %w: %s is not linked to its parent", errorutil.ErrDataIntegrity, c.CallSequence())
			}
			if c.depth != n.depth+1 {
				return fmt.Errorf("calltree: %w: %s has depth %d, expected %d", errorutil.ErrDataIntegrity, c.CallSequence(), c.depth, n.depth+1)
			}
			pending = append(pending, c)
		}
	}
	return nil
}
