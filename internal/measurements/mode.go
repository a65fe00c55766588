package measurements

import (
	"fmt"
	"strings"
)

// Mode names what a dimension measures.
type Mode int

const (
	WallTime Mode = iota
	ProcessTime
	Allocations
	Memory
	GCRuns
	GCTime
)

var modeNames = map[Mode]string{
	WallTime:    "wall_time",
	ProcessTime: "process_time",
	Allocations: "allocations",
	Memory:      "memory",
	GCRuns:      "gc_runs",
	GCTime:      "gc_time",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("measurements: unknown measure mode %q", s)
}

// ParseModes parses a list of mode names, one per dimension. Duplicates are
// rejected since each dimension must be measured once.
func ParseModes(names []string) ([]Mode, error) {
	modes := make([]Mode, 0, len(names))
	seen := make(map[Mode]struct{}, len(names))
	for _, n := range names {
		m, err := ParseMode(n)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[m]; ok {
			return nil, fmt.Errorf("measurements: measure mode %q listed twice", m)
		}
		seen[m] = struct{}{}
		modes = append(modes, m)
	}
	return modes, nil
}
