package calltree

import "sort"

// RootsOf returns the nodes that are not a descendent of any other node in
// nodes. The input can span several trees and several depths; duplicated
// references are only considered once.
func RootsOf(nodes []*Node) []*Node {
	seen := make(map[*Node]struct{}, len(nodes))
	sorted := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		sorted = append(sorted, n)
	}
	// Deepest first: a node can only descend from a node with a smaller
	// depth, and those are still in the remaining list when it is checked.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].depth > sorted[j].depth
	})

	var roots []*Node
	for len(sorted) > 0 {
		n := sorted[0]
		sorted = sorted[1:]
		isDescendent := false
		for _, p := range sorted {
			if n.DescendentOf(p) {
				isDescendent = true
				break
			}
		}
		if !isDescendent {
			roots = append(roots, n)
		}
	}
	return roots
}
