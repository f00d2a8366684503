// SPDX-License-Identifier: MIT
package stft

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
)

// command is the one-byte control message a worker accepts through its
// single-slot inbox.
type command byte

const (
	cmdStart command = iota + 1
	cmdKill
)

// worker owns one transform plan and its scratch buffers. The
// dispatcher writes the input scratch only while holding the worker's
// ready token, so the hand-off needs no lock.
type worker struct {
	id   int
	pool *Pool

	plan      *Plan
	input     []complex128 // frame scratch, filled by the dispatcher while idle
	output    []complex128 // transform result
	magnitude []float32    // |output|; phase is discarded
	frame     []byte       // encoded half-swapped block, one output write per frame

	inbox chan command  // capacity 1: START or KILL, never more than one pending
	ready chan struct{} // scratch ownership token
}

func newWorker(id int, pool *Pool, mode PlanMode) *worker {
	n := pool.n
	return &worker{
		id:        id,
		pool:      pool,
		plan:      NewPlan(n, mode),
		input:     make([]complex128, n),
		output:    make([]complex128, n),
		magnitude: make([]float32, n),
		frame:     make([]byte, 4*n),
		inbox:     make(chan command, 1),
		ready:     make(chan struct{}, 1),
	}
}

// run is the worker loop: one transform per cmdStart, terminate on
// cmdKill. Kill is honoured only between frames; an in-flight
// transform always completes and writes.
func (w *worker) run() {
	defer w.pool.wg.Done()
	for cmd := range w.inbox {
		if cmd == cmdKill {
			return
		}
		w.compute()
		w.writeOrdered()
		w.ready <- struct{}{} // scratch returns to the dispatcher
	}
}

// acquire takes the scratch ownership token, parking or spinning per
// the pool's wait mode.
func (w *worker) acquire(mode WaitMode) {
	if mode == WaitSpin {
		for {
			select {
			case <-w.ready:
				return
			default:
				runtime.Gosched()
			}
		}
	}
	<-w.ready
}

// compute applies the window in place, executes the transform and
// fills the magnitude buffer. Allocation-free.
func (w *worker) compute() {
	win := w.pool.window
	for k := range w.input {
		w.input[k] *= complex(win[k], 0)
	}
	w.plan.Execute(w.output, w.input)
	for k, c := range w.output {
		w.magnitude[k] = float32(cmplx.Abs(c))
	}
}

// writeOrdered blocks until the ticket reaches this worker, then emits
// the half-swapped magnitude block: negative-frequency bins [N/2..N)
// first, positive-frequency bins [0..N/2) second, as little-endian
// float32 regardless of host byte order.
func (w *worker) writeOrdered() {
	p := w.pool

	if p.wait == WaitSpin {
		for p.ticket.Load() != int32(w.id) {
			runtime.Gosched()
		}
		p.outMu.Lock()
	} else {
		p.outMu.Lock()
		for p.ticket.Load() != int32(w.id) {
			p.turn.Wait()
		}
	}

	half := p.n / 2
	off := 0
	for _, m := range w.magnitude[half:] {
		binary.LittleEndian.PutUint32(w.frame[off:], math.Float32bits(m))
		off += 4
	}
	for _, m := range w.magnitude[:half] {
		binary.LittleEndian.PutUint32(w.frame[off:], math.Float32bits(m))
		off += 4
	}
	if !p.failed.Load() {
		if _, err := p.out.Write(w.frame); err != nil {
			p.fail(fmt.Errorf("output write: %w", err))
		} else {
			p.written.Add(1)
		}
	}

	// Advance the ticket even after a write error so no sibling stalls.
	if w.id == p.workers-1 {
		p.ticket.Add(int32(-(p.workers - 1)))
	} else {
		p.ticket.Add(1)
	}
	p.turn.Broadcast()
	p.outMu.Unlock()
}
