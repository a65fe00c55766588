package aggregate

import (
	"sort"

	"github.com/getsentry/callgraph/internal/calltree"
)

func sortByPosition(nodes []*calltree.Node, position map[*calltree.Node]int) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return position[nodes[i]] < position[nodes[j]]
	})
}
