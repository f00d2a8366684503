// SPDX-License-Identifier: MIT
/*
Package input adapts I/Q sample streams to the spectral pipeline.

Three sources are provided:
  - FileSource: raw interleaved little-endian float32 I/Q, no header
  - WAVSource: 2-channel PCM WAV recordings (I on channel 0, Q on channel 1)
  - SDRSource: live samples streamed from a receiver over WebSocket

All sources deliver samples through the same SampleSource interface and
report device conditions with the sentinel errors below.
*/
package input

import (
	"encoding/binary"
	"errors"
	"math"
)

// SampleSource yields complex I/Q samples on demand.
type SampleSource interface {
	// Recv fills buf with up to len(buf) samples and returns how many
	// were produced. It returns io.EOF at the end of the stream (the
	// final samples may accompany it), ErrOverflow when the device
	// dropped samples, and ErrTimeout when the receiver went silent.
	Recv(buf []complex128) (int, error)
}

// Sentinel conditions reported by streaming sources. Overflow is
// non-fatal; timeout ends the run.
var (
	ErrOverflow = errors.New("input: receiver overflow")
	ErrTimeout  = errors.New("input: receiver timeout")
)

// sampleBytes is the wire size of one complex sample: two float32s.
const sampleBytes = 8

// decodeIQ decodes interleaved little-endian float32 I/Q pairs from src
// into dst and returns the number of samples decoded.
func decodeIQ(dst []complex128, src []byte) int {
	n := len(src) / sampleBytes
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		re := math.Float32frombits(binary.LittleEndian.Uint32(src[i*sampleBytes:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(src[i*sampleBytes+4:]))
		dst[i] = complex(float64(re), float64(im))
	}
	return n
}
