// SPDX-License-Identifier: MIT
package energy

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"iqspect/pkg/testsig"
)

func decodeBins(t *testing.T, data []byte) []float64 {
	t.Helper()
	if len(data)%8 != 0 {
		t.Fatalf("output length %d is not a whole number of bins", len(data))
	}
	bins := make([]float64, 0, len(data)/8)
	for off := 0; off < len(data); off += 8 {
		bins = append(bins, math.Float64frombits(binary.LittleEndian.Uint64(data[off:])))
	}
	return bins
}

func TestSingleBin(t *testing.T) {
	samples := []complex128{
		complex(1, 0), complex(0, 1), complex(1, 1), complex(2, 0),
	}
	var out bytes.Buffer
	bins, err := Run(&out, &testsig.Source{Samples: samples}, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if bins != 1 {
		t.Fatalf("bins = %d, want 1", bins)
	}
	got := decodeBins(t, out.Bytes())
	if math.Abs(got[0]-8.0) > 1e-12 {
		t.Errorf("bin 0 = %v, want 8.0", got[0])
	}
}

func TestBinsInStreamOrder(t *testing.T) {
	// Bin k holds 4 samples of amplitude k+1, so energy 4*(k+1)².
	var samples []complex128
	for k := 0; k < 5; k++ {
		samples = append(samples, testsig.DC(4, float64(k+1))...)
	}

	var out bytes.Buffer
	bins, err := Run(&out, &testsig.Source{Samples: samples, ChunkMax: 3}, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if bins != 5 {
		t.Fatalf("bins = %d, want 5", bins)
	}
	for k, got := range decodeBins(t, out.Bytes()) {
		want := 4 * float64(k+1) * float64(k+1)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("bin %d = %v, want %v", k, got, want)
		}
	}
}

func TestPartialTailDiscarded(t *testing.T) {
	var out bytes.Buffer
	bins, err := Run(&out, &testsig.Source{Samples: testsig.DC(10, 1)}, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if bins != 2 {
		t.Fatalf("bins = %d, want 2", bins)
	}
	if out.Len() != 16 {
		t.Errorf("output = %d bytes, want 16", out.Len())
	}
}

func TestRejectsBadBinSize(t *testing.T) {
	var out bytes.Buffer
	if _, err := Run(&out, &testsig.Source{}, 0); err == nil {
		t.Error("expected rejection of bin size 0")
	}
}
