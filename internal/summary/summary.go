package summary

import (
	gojson "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/getsentry/callgraph/internal/calltree"
	"github.com/getsentry/callgraph/internal/measurements"
)

type (
	// Summary describes one consolidated root call tree.
	Summary struct {
		SessionID    string              `json:"session_id"`
		CallSequence string              `json:"call_sequence"`
		Fingerprint  uint64              `json:"fingerprint"`
		Called       uint64              `json:"called"`
		Measures     []string            `json:"measures"`
		Measurements measurements.Vector `json:"measurements"`
		ChildrenTime []float64           `json:"children_time"`
		NodeCount    int                 `json:"node_count"`
		Threads      []string            `json:"threads,omitempty"`
	}
)

// FromNode summarizes the tree rooted at root.
func FromNode(sessionID string, root *calltree.Node, modes []measurements.Mode, threads []string) Summary {
	s := Summary{
		SessionID:    sessionID,
		CallSequence: root.CallSequence(),
		Fingerprint:  root.Target.ID,
		Called:       root.Called,
		Measures:     make([]string, 0, len(modes)),
		Measurements: root.Measurements.Clone(),
		ChildrenTime: make([]float64, 0, root.Measurements.Dimensions()),
		NodeCount:    countNodes(root),
		Threads:      threads,
	}
	for _, m := range modes {
		s.Measures = append(s.Measures, m.String())
	}
	for i := 0; i < root.Measurements.Dimensions(); i++ {
		s.ChildrenTime = append(s.ChildrenTime, root.ChildrenTime(i))
	}
	return s
}

func countNodes(root *calltree.Node) int {
	count := 0
	pending := []*calltree.Node{root}
	for len(pending) > 0 {
		n := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		count++
		pending = append(pending, n.Children()...)
	}
	return count
}

// GenerateKafkaMessageBatch encodes one message per summary, keyed by
// session so all summaries of an aggregation land on the same partition.
func GenerateKafkaMessageBatch(summaries []Summary) ([]kafka.Message, error) {
	messages := make([]kafka.Message, 0, len(summaries))
	for _, s := range summaries {
		b, err := gojson.Marshal(s)
		if err != nil {
			return nil, err
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(s.SessionID),
			Value: b,
		})
	}
	return messages, nil
}
