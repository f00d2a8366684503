// SPDX-License-Identifier: MIT
//
// Package record captures an I/Q stream verbatim: interleaved
// little-endian float32 pairs, the raw format the stft and energy
// modes read back.
package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"iqspect/internal/input"
)

// chunkSamples is how many samples one Recv requests.
const chunkSamples = 4096

// Run copies src to out until end of stream and returns the number of
// samples written. Overflow notices print the glyph and the capture
// continues; a receiver timeout ends the run with an error.
func Run(out io.Writer, src input.SampleSource) (uint64, error) {
	var (
		buf     = make([]complex128, chunkSamples)
		raw     = make([]byte, chunkSamples*8)
		written uint64
	)
	for {
		n, err := src.Recv(buf)
		if n > 0 {
			for i, s := range buf[:n] {
				binary.LittleEndian.PutUint32(raw[i*8:], math.Float32bits(float32(real(s))))
				binary.LittleEndian.PutUint32(raw[i*8+4:], math.Float32bits(float32(imag(s))))
			}
			if _, werr := out.Write(raw[:n*8]); werr != nil {
				return written, fmt.Errorf("failed to write samples: %w", werr)
			}
			written += uint64(n)
		}
		if err != nil {
			switch {
			case err == io.EOF:
				return written, nil
			case errors.Is(err, input.ErrOverflow):
				fmt.Print("O")
			case errors.Is(err, input.ErrTimeout):
				return written, fmt.Errorf("receiver went silent: %w", err)
			default:
				return written, err
			}
		}
	}
}
