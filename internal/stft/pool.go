// SPDX-License-Identifier: MIT
/*
Package stft computes overlapped short-time Fourier transforms of a
complex I/Q sample stream on a fixed bank of parallel workers.

The ordering protocol is the heart of the package. Workers finish out
of order, but the output must be written in dispatch order, so a shared
ticket names the worker currently entitled to write. The dispatcher
hands frames out round-robin and never overtakes a busy worker, the
ticket rotates in the same order, and each worker releases the ticket
only after its write. Frame k in therefore means frame k out, for any
worker count.

Output layout, per frame: N little-endian float32 magnitudes with the
halves swapped, DFT bins [N/2..N) then [0..N/2).
*/
package stft

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// WaitMode selects how waiters behave at the two blocking points: the
// dispatcher waiting on a busy worker and a worker waiting on the
// ticket. Parking is the default; spinning trades CPU for latency and
// is worthwhile when frame compute times are sub-millisecond.
type WaitMode int

const (
	WaitPark WaitMode = iota
	WaitSpin
)

// ParseWaitMode maps a configuration string to a WaitMode.
func ParseWaitMode(s string) (WaitMode, bool) {
	switch s {
	case "park":
		return WaitPark, true
	case "spin":
		return WaitSpin, true
	default:
		return WaitPark, false
	}
}

// Options configures a Pool.
type Options struct {
	FFTSize int       // transform length N
	Overlap int       // overlap factor O; hop = N/O
	Workers int       // worker count W
	Window  []float64 // length-N coefficients; nil means all-ones
	Wait    WaitMode
	Plan    PlanMode
}

// Pool is a fixed bank of transform workers sharing one ordered output
// stream. Construct with NewPool, feed through a Dispatcher, stop with
// Close.
type Pool struct {
	n       int
	hop     int
	overlap int
	workers int
	window  []float64
	wait    WaitMode

	out    io.Writer
	outMu  sync.Mutex   // output mutex; also guards ticket writes
	turn   *sync.Cond   // signalled on every ticket advance
	ticket atomic.Int32 // id of the worker next entitled to write

	units   []*worker
	next    int // round-robin dispatch cursor
	written atomic.Uint64

	wg      sync.WaitGroup
	errOnce sync.Once
	failed  atomic.Bool
	runErr  error
}

// NewPool validates opts, builds W workers with private plans and
// scratch, and starts them. All validation happens before any worker
// spawns; a rejected configuration never produces output bytes.
func NewPool(out io.Writer, opts Options) (*Pool, error) {
	if opts.FFTSize <= 0 {
		return nil, fmt.Errorf("fft size must be positive, got %d", opts.FFTSize)
	}
	if opts.Overlap < 1 {
		return nil, fmt.Errorf("overlap factor must be at least 1, got %d", opts.Overlap)
	}
	if opts.FFTSize%opts.Overlap != 0 {
		return nil, fmt.Errorf("incompatible fft size and overlap factor: %d %% %d = %d",
			opts.FFTSize, opts.Overlap, opts.FFTSize%opts.Overlap)
	}
	if opts.Workers < 1 {
		return nil, fmt.Errorf("need at least one worker, got %d", opts.Workers)
	}
	win := opts.Window
	if win == nil {
		win = make([]float64, opts.FFTSize)
		for i := range win {
			win[i] = 1.0
		}
	} else if len(win) != opts.FFTSize {
		return nil, fmt.Errorf("window length %d does not match fft size %d", len(win), opts.FFTSize)
	}

	p := &Pool{
		n:       opts.FFTSize,
		hop:     opts.FFTSize / opts.Overlap,
		overlap: opts.Overlap,
		workers: opts.Workers,
		window:  win,
		wait:    opts.Wait,
		out:     out,
	}
	p.turn = sync.NewCond(&p.outMu)

	// Workers and their plans are fully constructed before any
	// goroutine starts, so a failure here leaves nothing to tear down.
	p.units = make([]*worker, opts.Workers)
	for i := range p.units {
		w := newWorker(i, p, opts.Plan)
		w.ready <- struct{}{} // scratch starts in the dispatcher's hands
		p.units[i] = w
	}
	for _, w := range p.units {
		p.wg.Add(1)
		go w.run()
	}
	return p, nil
}

// dispatch hands the frame beginning at ring offset head to the next
// worker in rotation. It blocks until that worker is idle; frames are
// never dropped. The two-segment copy reconstructs the frame
// oldest-first.
func (p *Pool) dispatch(ring []complex128, head int) {
	w := p.units[p.next]
	w.acquire(p.wait)
	n := copy(w.input, ring[head:])
	copy(w.input[n:], ring[:head])
	w.inbox <- cmdStart
	p.next++
	if p.next == p.workers {
		p.next = 0
	}
}

// Close waits for every in-flight frame, stops the workers and reports
// the first write error, if any. Call exactly once, after the
// dispatcher has finished.
func (p *Pool) Close() error {
	// Reclaiming every scratch token proves no work is in flight.
	for _, w := range p.units {
		w.acquire(p.wait)
	}
	for _, w := range p.units {
		w.inbox <- cmdKill
	}
	p.wg.Wait()
	for _, w := range p.units {
		close(w.inbox)
		close(w.ready)
	}
	return p.Err()
}

// fail records the first fatal error of the run.
func (p *Pool) fail(err error) {
	p.errOnce.Do(func() {
		p.runErr = err
		p.failed.Store(true)
	})
}

// Err returns the first fatal error of the run, or nil.
func (p *Pool) Err() error {
	if !p.failed.Load() {
		return nil
	}
	return p.runErr
}

// Frames reports how many frames reached the output. After a write
// error this is the count of frames written before the failure, not
// the count dispatched.
func (p *Pool) Frames() uint64 {
	return p.written.Load()
}
