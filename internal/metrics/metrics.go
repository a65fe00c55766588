package metrics

import (
	"sort"

	"github.com/getsentry/callgraph/internal/calltree"
	"github.com/getsentry/callgraph/internal/quantile"
)

// Aggregator computes per method metrics over every live node of a
// registry.
type Aggregator struct {
	MaxUniqueMethods uint
	// Dimension selects which measurement the metrics are computed on.
	Dimension int
}

type MethodMetrics struct {
	Name         string  `json:"name"`
	Fingerprint  uint64  `json:"fingerprint"`
	Called       uint64  `json:"called"`
	Invocations  int     `json:"invocations"`
	TotalTime    float64 `json:"total_time"`
	SelfTime     float64 `json:"self_time"`
	WaitTime     float64 `json:"wait_time"`
	ChildrenTime float64 `json:"children_time"`
	P75          float64 `json:"p75"`
	P95          float64 `json:"p95"`
	P99          float64 `json:"p99"`
	Avg          float64 `json:"avg"`
}

func NewAggregator(maxUniqueMethods uint, dimension int) Aggregator {
	return Aggregator{
		MaxUniqueMethods: maxUniqueMethods,
		Dimension:        dimension,
	}
}

// FromRegistry returns the metrics of the methods with the most self time
// first. Percentiles are computed on the self time of each call site.
func (a Aggregator) FromRegistry(r *calltree.Registry) []MethodMetrics {
	methods := r.Methods()
	metrics := make([]MethodMetrics, 0, len(methods))
	for _, m := range methods {
		nodes := m.Nodes()
		if len(nodes) == 0 {
			continue
		}
		q := quantile.Quantile{Xs: make([]float64, 0, len(nodes))}
		for _, n := range nodes {
			q.Add(n.SelfTime(a.Dimension))
		}
		q.Sort()
		metrics = append(metrics, MethodMetrics{
			Name:         m.FullName(),
			Fingerprint:  m.ID,
			Called:       m.Called(),
			Invocations:  len(nodes),
			TotalTime:    m.TotalTime(a.Dimension),
			SelfTime:     m.SelfTime(a.Dimension),
			WaitTime:     m.WaitTime(a.Dimension),
			ChildrenTime: m.ChildrenTime(a.Dimension),
			P75:          q.Percentile(0.75),
			P95:          q.Percentile(0.95),
			P99:          q.Percentile(0.99),
			Avg:          q.Mean(),
		})
	}
	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].SelfTime > metrics[j].SelfTime
	})
	if a.MaxUniqueMethods > 0 && len(metrics) > int(a.MaxUniqueMethods) {
		metrics = metrics[:a.MaxUniqueMethods]
	}
	return metrics
}
