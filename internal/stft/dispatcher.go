// SPDX-License-Identifier: MIT
package stft

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"iqspect/internal/input"
	applog "iqspect/internal/log"
)

// Dispatcher turns a sequential I/Q stream into hop-spaced overlapped
// frames and feeds them to the pool in round-robin order. It owns the
// ring buffer exclusively.
type Dispatcher struct {
	pool    *Pool
	ring    []complex128
	head    int // next write offset; once primed, also the oldest sample
	chunks  int // hops read so far
	stopped atomic.Bool
}

// NewDispatcher builds a dispatcher for pool.
func NewDispatcher(pool *Pool) *Dispatcher {
	return &Dispatcher{pool: pool, ring: make([]complex128, pool.n)}
}

// Stop requests a cooperative stop. The hop in progress completes, so
// the output stays frame-aligned.
func (d *Dispatcher) Stop() {
	d.stopped.Store(true)
}

// Run consumes the source until end of input, a fatal error or Stop.
//
// Frame k covers samples [k*hop, k*hop+N); the first frame goes out as
// soon as the ring holds N samples, so an input of L samples yields
// ⌊L/hop⌋ − O + 1 frames (when that is positive). A tail shorter than
// one hop is discarded and logged.
func (d *Dispatcher) Run(src input.SampleSource) error {
	hop := d.pool.hop
	for !d.stopped.Load() {
		if err := d.pool.Err(); err != nil {
			return err
		}
		n, err := d.fillHop(src, d.ring[d.head:d.head+hop])
		if n == hop {
			d.head += hop
			if d.head == d.pool.n {
				d.head = 0
			}
			d.chunks++
			if d.chunks >= d.pool.overlap {
				d.pool.dispatch(d.ring, d.head)
			}
		}
		if err != nil {
			if err == io.EOF {
				if n > 0 && n < hop {
					applog.Infof("input data terminated with unaligned data; %d samples discarded", n)
				}
				return nil
			}
			if errors.Is(err, input.ErrTimeout) {
				return fmt.Errorf("receiver went silent: %w", err)
			}
			return err
		}
	}
	return nil
}

// fillHop reads one hop of samples, riding through overflow notices.
// An overflow means the device dropped samples; the run continues and
// a single glyph marks the event on stdout.
func (d *Dispatcher) fillHop(src input.SampleSource, buf []complex128) (int, error) {
	filled := 0
	for filled < len(buf) {
		n, err := src.Recv(buf[filled:])
		filled += n
		if err == nil {
			continue
		}
		if errors.Is(err, input.ErrOverflow) {
			fmt.Print("O")
			continue
		}
		return filled, err
	}
	return filled, nil
}

// Pipeline couples a pool with its dispatcher for one run.
type Pipeline struct {
	pool *Pool
	disp *Dispatcher
}

// NewPipeline builds the pool and dispatcher for one STFT pass.
func NewPipeline(out io.Writer, opts Options) (*Pipeline, error) {
	pool, err := NewPool(out, opts)
	if err != nil {
		return nil, err
	}
	return &Pipeline{pool: pool, disp: NewDispatcher(pool)}, nil
}

// Run dispatches the whole source and shuts the pool down in order:
// drain in-flight frames, kill the workers, join them.
func (pl *Pipeline) Run(src input.SampleSource) error {
	start := time.Now()
	runErr := pl.disp.Run(src)
	closeErr := pl.pool.Close()

	elapsed := time.Since(start)
	if frames := pl.pool.Frames(); frames > 0 && elapsed > 0 {
		applog.Debugf("computed %d transforms in %s (%.0f frames/s)",
			frames, elapsed.Round(time.Millisecond), float64(frames)/elapsed.Seconds())
	}

	if runErr != nil {
		return runErr
	}
	return closeErr
}

// Stop requests a cooperative stop of the dispatch loop.
func (pl *Pipeline) Stop() {
	pl.disp.Stop()
}

// Frames reports how many frames reached the output.
func (pl *Pipeline) Frames() uint64 {
	return pl.pool.Frames()
}

// Run executes a complete STFT pass over src and returns the number of
// frames written.
func Run(out io.Writer, src input.SampleSource, opts Options) (uint64, error) {
	pl, err := NewPipeline(out, opts)
	if err != nil {
		return 0, err
	}
	err = pl.Run(src)
	return pl.Frames(), err
}
