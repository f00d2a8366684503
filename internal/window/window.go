// SPDX-License-Identifier: MIT
//
// Package window loads the real-valued coefficient table applied to
// each frame before its transform. Window files are raw little-endian
// float32 coefficients with no header, the format produced by
// MATLAB/GNU Radio style tooling.
package window

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	applog "iqspect/internal/log"
)

// Uniform returns the all-ones window of length n, equivalent to no
// windowing at all.
func Uniform(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0
	}
	return w
}

// Load reads a window file and returns a table of exactly n
// coefficients. A file shorter than n is right-zero-padded; a file
// longer than n is rejected. An empty path selects the uniform window.
func Load(path string, n int) ([]float64, error) {
	if path == "" {
		return Uniform(n), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open window file: %w", err)
	}

	const floatSize = 4
	if len(data)%floatSize != 0 {
		return nil, fmt.Errorf("window file %s is not a whole number of float32 values (%d bytes)",
			path, len(data))
	}
	size := len(data) / floatSize
	if size > n {
		return nil, fmt.Errorf("window is too large: fft size %d, window size %d", n, size)
	}
	if size < n {
		applog.Warnf("window is smaller than fft size, assuming zero-padding (fft size %d, window size %d)",
			n, size)
	}

	// Elements [size..n) stay zero.
	w := make([]float64, n)
	for i := 0; i < size; i++ {
		bits := binary.LittleEndian.Uint32(data[i*floatSize:])
		w[i] = float64(math.Float32frombits(bits))
	}
	return w, nil
}
