package measurements

import (
	"errors"
	"fmt"

	"github.com/getsentry/callgraph/internal/errorutil"
)

// ErrDimensionMismatch is returned when two vectors with a different number
// of dimensions are accumulated.
var ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", errorutil.ErrConfiguration)

type (
	// Triple holds the times measured for one dimension.
	Triple struct {
		Total float64 `json:"total"`
		Self  float64 `json:"self"`
		Wait  float64 `json:"wait"`
	}

	// Vector holds one Triple per measurement dimension. Its length is fixed
	// when it is built and never changes afterwards.
	Vector []Triple
)

// New returns a zeroed vector with the given number of dimensions.
func New(dimensions int) Vector {
	if dimensions < 0 {
		dimensions = 0
	}
	return make(Vector, dimensions)
}

func (v Vector) Dimensions() int {
	return len(v)
}

func (v Vector) at(i int) Triple {
	if i < 0 || i >= len(v) {
		return Triple{}
	}
	return v[i]
}

func (v Vector) Total(i int) float64 {
	return v.at(i).Total
}

func (v Vector) Self(i int) float64 {
	return v.at(i).Self
}

func (v Vector) Wait(i int) float64 {
	return v.at(i).Wait
}

// Clone returns a copy that shares no memory with v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

func (v Vector) check(o Vector) error {
	if len(v) != len(o) {
		return fmt.Errorf("measurements: %w: have %d dimensions, got %d", ErrDimensionMismatch, len(v), len(o))
	}
	return nil
}

// AddTotal adds the total time of every dimension of o to v.
func (v Vector) AddTotal(o Vector) error {
	if err := v.check(o); err != nil {
		return err
	}
	for i := range v {
		v[i].Total += o[i].Total
	}
	return nil
}

// AddSelf adds the self time of every dimension of o to v.
func (v Vector) AddSelf(o Vector) error {
	if err := v.check(o); err != nil {
		return err
	}
	for i := range v {
		v[i].Self += o[i].Self
	}
	return nil
}

// AddWait adds the wait time of every dimension of o to v.
func (v Vector) AddWait(o Vector) error {
	if err := v.check(o); err != nil {
		return err
	}
	for i := range v {
		v[i].Wait += o[i].Wait
	}
	return nil
}

// Add accumulates all three components of o into v. On error v is left
// unchanged.
func (v Vector) Add(o Vector) error {
	if err := v.check(o); err != nil {
		return err
	}
	for i := range v {
		v[i].Total += o[i].Total
		v[i].Self += o[i].Self
		v[i].Wait += o[i].Wait
	}
	return nil
}

// IsDimensionMismatch reports whether err was caused by accumulating vectors
// of different sizes.
func IsDimensionMismatch(err error) bool {
	return errors.Is(err, ErrDimensionMismatch)
}
