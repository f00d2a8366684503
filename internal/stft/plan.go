// SPDX-License-Identifier: MIT
package stft

import (
	"gonum.org/v1/gonum/dsp/fourier"

	applog "iqspect/internal/log"
	"iqspect/pkg/bitint"
)

// PlanMode selects how much up-front work goes into preparing a
// worker's transform. More preparation costs startup time and buys
// steady-state throughput, which pays off on long captures.
type PlanMode int

const (
	// PlanEstimate constructs the transform and nothing else.
	PlanEstimate PlanMode = iota
	// PlanMeasure runs one warm-up transform to settle internal tables.
	PlanMeasure
	// PlanExhaustive runs several warm-up passes; best steady state.
	PlanExhaustive
)

// ParsePlanMode maps a configuration string to a PlanMode.
func ParsePlanMode(s string) (PlanMode, bool) {
	switch s {
	case "estimate":
		return PlanEstimate, true
	case "measure":
		return PlanMeasure, true
	case "exhaustive":
		return PlanExhaustive, true
	default:
		return PlanEstimate, false
	}
}

// Plan is a pre-built forward DFT of fixed length. Each worker owns
// one; plans are not safe for concurrent use.
type Plan struct {
	n   int
	fft *fourier.CmplxFFT
}

// NewPlan builds a length-n complex-to-complex forward transform.
func NewPlan(n int, mode PlanMode) *Plan {
	if !bitint.IsPowerOfTwo(n) {
		applog.Debugf("fft size %d is not a power of two; consider %d for the fast radix-2 path",
			n, bitint.NextPowerOfTwo(n))
	}
	p := &Plan{n: n, fft: fourier.NewCmplxFFT(n)}

	warmups := 0
	switch mode {
	case PlanMeasure:
		warmups = 1
	case PlanExhaustive:
		warmups = 4
	}
	if warmups > 0 {
		src := make([]complex128, n)
		dst := make([]complex128, n)
		for i := 0; i < warmups; i++ {
			p.fft.Coefficients(dst, src)
		}
	}
	return p
}

// Execute computes the unnormalized forward DFT of src into dst. Both
// slices must have length n.
func (p *Plan) Execute(dst, src []complex128) {
	p.fft.Coefficients(dst, src)
}

// Size returns the transform length.
func (p *Plan) Size() int {
	return p.n
}
