// Package accum turns a stream of raw encoder deltas into discrete steps,
// carrying the fractional remainder per identity between calls.
package accum

import (
	"errors"
	"fmt"
	"math"
)

var ErrThreshold = errors.New("accum: threshold must be > 0")

// Accumulator keeps one residual per identity. Steps truncate toward zero, so
// a residual always lies strictly inside (-threshold, threshold).
type Accumulator[K comparable] struct {
	threshold float64
	residual  map[K]float64
}

func New[K comparable](threshold float64) (*Accumulator[K], error) {
	if !(threshold > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrThreshold, threshold)
	}
	return &Accumulator[K]{
		threshold: threshold,
		residual:  make(map[K]float64),
	}, nil
}

func (a *Accumulator[K]) Threshold() float64 {
	return a.threshold
}

// Add folds delta into id's residual and returns the whole steps it produced.
func (a *Accumulator[K]) Add(id K, delta float64) int {
	acc := a.residual[id] + delta
	steps := math.Trunc(acc / a.threshold)
	a.residual[id] = acc - steps*a.threshold
	return int(steps)
}

func (a *Accumulator[K]) Residual(id K) float64 {
	return a.residual[id]
}

// Reset drops id's residual.
func (a *Accumulator[K]) Reset(id K) {
	delete(a.residual, id)
}

// ResetAll drops every residual, e.g. when the owning mode deactivates.
func (a *Accumulator[K]) ResetAll() {
	clear(a.residual)
}
