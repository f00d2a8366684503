// SPDX-License-Identifier: MIT
package input

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeIQWAV writes a 16-bit 2-channel WAV with I on channel 0 and Q
// on channel 1.
func writeIQWAV(t *testing.T, iq [][2]int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iq.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, 48000, 16, 2, 1)

	data := make([]int, 0, len(iq)*2)
	for _, s := range iq {
		data = append(data, s[0], s[1])
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 48000},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestWAVSourceRecv(t *testing.T) {
	// 16384/32768 = 0.5, -16384/32768 = -0.5
	path := writeIQWAV(t, [][2]int{{16384, 0}, {0, -16384}, {32767, 32767}})
	src, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	defer src.Close()

	buf := make([]complex128, 8)
	n, err := src.Recv(buf)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if n != 3 {
		t.Fatalf("Recv n = %d, want 3", n)
	}

	want := []complex128{complex(0.5, 0), complex(0, -0.5), complex(32767.0/32768, 32767.0/32768)}
	const tol = 1e-9
	for i := range want {
		if math.Abs(real(buf[i])-real(want[i])) > tol || math.Abs(imag(buf[i])-imag(want[i])) > tol {
			t.Errorf("sample %d = %v, want %v", i, buf[i], want[i])
		}
	}

	if n, err := src.Recv(buf); n != 0 || err != io.EOF {
		t.Errorf("Recv past end = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestOpenWAVRejectsMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, 48000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 48000},
		Data:           []int{1, 2, 3, 4},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	f.Close()

	if _, err := OpenWAV(path); err == nil {
		t.Error("expected rejection of mono WAV")
	}
}

func TestOpenWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("not a wav at all"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := OpenWAV(path); err == nil {
		t.Error("expected rejection of non-WAV data")
	}
}
