package calltree

import (
	"fmt"

	"github.com/getsentry/callgraph/internal/errorutil"
)

var (
	// ErrTargetMismatch is returned when merging nodes targeting different
	// methods.
	ErrTargetMismatch = fmt.Errorf("%w: trying to merge nodes with different targets", errorutil.ErrDataIntegrity)

	// ErrNestedMerge is returned when one of the merged nodes descends from
	// the other.
	ErrNestedMerge = fmt.Errorf("%w: trying to merge nodes of the same call path", errorutil.ErrDataIntegrity)
)

// MergeCallTree folds other into n. Call counts and measurements of other
// are added to n, and each child of other is either merged into the child of
// n targeting the same method or moved under n. Afterwards other has no
// children and is deregistered from its target, as is every node absorbed
// along the way.
//
// The caller is responsible for detaching other from its own parent. Neither
// node may descend from the other.
//
// A failed merge may leave n partially updated. The aggregation it belongs
// to must then be discarded.
func (n *Node) MergeCallTree(other *Node) error {
	if n == other {
		return nil
	}
	if n.Target.ID != other.Target.ID {
		return fmt.Errorf("calltree: %w: %s and %s", ErrTargetMismatch, n.Target.FullName(), other.Target.FullName())
	}
	if n.DescendentOf(other) || other.DescendentOf(n) {
		return fmt.Errorf("calltree: %w: %s and %s", ErrNestedMerge, n.CallSequence(), other.CallSequence())
	}

	type pair struct {
		dst, src *Node
	}
	// An explicit stack keeps deeply recursive traces from exhausting the
	// goroutine stack.
	pending := []pair{{dst: n, src: other}}
	for len(pending) > 0 {
		p := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if err := p.dst.Measurements.Add(p.src.Measurements); err != nil {
			return fmt.Errorf("calltree: merging %s: %w", p.dst.CallSequence(), err)
		}
		p.dst.Called += p.src.Called

		for _, c := range p.src.children {
			match, err := p.dst.FindCall(c)
			if err != nil {
				return err
			}
			if match != nil {
				pending = append(pending, pair{dst: match, src: c})
				continue
			}
			p.dst.adopt(c)
		}
		p.src.children = nil
		if p.src != other {
			p.src.parent = nil
		}
		p.src.Target.Remove(p.src)
	}
	return nil
}
