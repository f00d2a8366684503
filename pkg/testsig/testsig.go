// SPDX-License-Identifier: MIT
//
// Package testsig provides deterministic I/Q test signals, a naive
// reference DFT and small codec helpers for validating the spectral
// pipeline. Test-only; nothing here is tuned for speed.
package testsig

import (
	"encoding/binary"
	"io"
	"math"
	"math/cmplx"
)

// Impulse returns a unit impulse: 1+0i at sample 0, zeros after. Its
// DFT has magnitude 1 in every bin.
func Impulse(n int) []complex128 {
	s := make([]complex128, n)
	s[0] = complex(1, 0)
	return s
}

// DC returns n copies of amp+0i. Its DFT concentrates n*amp in bin 0.
func DC(n int, amp float64) []complex128 {
	s := make([]complex128, n)
	for i := range s {
		s[i] = complex(amp, 0)
	}
	return s
}

// Tone returns a complex exponential completing the given number of
// cycles over n samples. Integer cycle counts land exactly on one bin.
func Tone(n int, cycles float64) []complex128 {
	s := make([]complex128, n)
	for k := range s {
		phase := 2 * math.Pi * cycles * float64(k) / float64(n)
		s[k] = cmplx.Exp(complex(0, phase))
	}
	return s
}

// ReferenceDFT computes magnitudes of the unnormalized forward DFT by
// the O(n²) definition. Slow and obviously correct.
func ReferenceDFT(frame []complex128) []float64 {
	n := len(frame)
	mag := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum complex128
		for t := 0; t < n; t++ {
			phase := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			sum += frame[t] * cmplx.Exp(complex(0, phase))
		}
		mag[k] = cmplx.Abs(sum)
	}
	return mag
}

// HalfSwap returns the magnitude vector reordered to the output
// contract: bins [n/2..n) first, then [0..n/2).
func HalfSwap(m []float64) []float64 {
	n := len(m)
	out := make([]float64, 0, n)
	out = append(out, m[n/2:]...)
	return append(out, m[:n/2]...)
}

// EncodeIQ packs samples as interleaved little-endian float32 pairs,
// the raw file format the pipeline reads.
func EncodeIQ(samples []complex128) []byte {
	buf := make([]byte, len(samples)*8)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(float32(real(s))))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(float32(imag(s))))
	}
	return buf
}

// DecodeFrames splits an output byte stream into frames of n
// little-endian float32 values. Panics on a torn frame so tests fail
// loudly.
func DecodeFrames(data []byte, n int) [][]float32 {
	if len(data)%(4*n) != 0 {
		panic("testsig: output stream is not a whole number of frames")
	}
	frames := make([][]float32, 0, len(data)/(4*n))
	for off := 0; off < len(data); off += 4 * n {
		frame := make([]float32, n)
		for i := range frame {
			frame[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off+i*4:]))
		}
		frames = append(frames, frame)
	}
	return frames
}

// Source replays a fixed sample slice through the pipeline's source
// interface. ChunkMax below the request size forces short reads.
type Source struct {
	Samples  []complex128
	ChunkMax int
	pos      int
}

// Recv copies the next samples into buf, returning io.EOF once the
// slice is exhausted.
func (s *Source) Recv(buf []complex128) (int, error) {
	if s.pos >= len(s.Samples) {
		return 0, io.EOF
	}
	if s.ChunkMax > 0 && len(buf) > s.ChunkMax {
		buf = buf[:s.ChunkMax]
	}
	n := copy(buf, s.Samples[s.pos:])
	s.pos += n
	return n, nil
}
