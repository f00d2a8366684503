// SPDX-License-Identifier: MIT
//
// Package energy reduces an I/Q stream to total power per fixed-size
// bin. One float64 per bin, little-endian, in stream order.
package energy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"iqspect/internal/input"
	applog "iqspect/internal/log"
)

// Run sums i²+q² over consecutive groups of binSize samples from src
// and writes each sum to out as a little-endian float64. A tail shorter
// than one bin is discarded and logged. Returns the number of bins
// written.
func Run(out io.Writer, src input.SampleSource, binSize int) (uint64, error) {
	if binSize < 1 {
		return 0, fmt.Errorf("bin size must be at least 1, got %d", binSize)
	}

	var (
		buf    = make([]complex128, binSize)
		word   [8]byte
		bins   uint64
		sum    float64
		filled int
	)
	for {
		n, err := src.Recv(buf[filled:])
		for _, s := range buf[filled : filled+n] {
			i, q := real(s), imag(s)
			sum += i*i + q*q
		}
		filled += n
		if filled == binSize {
			binary.LittleEndian.PutUint64(word[:], math.Float64bits(sum))
			if _, werr := out.Write(word[:]); werr != nil {
				return bins, fmt.Errorf("failed to write energy bin: %w", werr)
			}
			bins++
			sum = 0
			filled = 0
		}
		if err != nil {
			if err == io.EOF {
				if filled > 0 {
					applog.Infof("input data terminated with unaligned data; %d samples discarded", filled)
				}
				return bins, nil
			}
			if errors.Is(err, input.ErrOverflow) {
				fmt.Print("O")
				continue
			}
			if errors.Is(err, input.ErrTimeout) {
				return bins, fmt.Errorf("receiver went silent: %w", err)
			}
			return bins, err
		}
	}
}
