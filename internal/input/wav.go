// SPDX-License-Identifier: MIT
package input

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSource reads I/Q recordings stored as 2-channel PCM WAV files,
// the interchange format most SDR recording tools produce. Channel 0
// carries I, channel 1 carries Q; integer samples are normalized to
// [-1, 1) by the source bit depth.
type WAVSource struct {
	f     *os.File
	dec   *wav.Decoder
	pcm   *audio.IntBuffer
	scale float64
}

// OpenWAV opens a 2-channel PCM WAV file as an I/Q sample stream.
func OpenWAV(path string) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open input file: %w", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}
	if dec.NumChans != 2 {
		f.Close()
		return nil, fmt.Errorf("I/Q WAV input needs 2 channels, %s has %d", path, dec.NumChans)
	}
	if dec.WavAudioFormat != 1 {
		f.Close()
		return nil, fmt.Errorf("unsupported WAV encoding %d in %s (PCM only)", dec.WavAudioFormat, path)
	}

	return &WAVSource{
		f:     f,
		dec:   dec,
		scale: float64(int64(1) << (dec.BitDepth - 1)),
	}, nil
}

// Recv fills buf with samples decoded from the WAV stream.
func (s *WAVSource) Recv(buf []complex128) (int, error) {
	want := len(buf) * 2
	if s.pcm == nil || cap(s.pcm.Data) < want {
		s.pcm = &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: int(s.dec.NumChans),
				SampleRate:  int(s.dec.SampleRate),
			},
			Data:           make([]int, want),
			SourceBitDepth: int(s.dec.BitDepth),
		}
	}
	s.pcm.Data = s.pcm.Data[:want]

	n, err := s.dec.PCMBuffer(s.pcm)
	if err != nil {
		return 0, fmt.Errorf("wav decode: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	pairs := n / 2 // a trailing half-sample is discarded
	for i := 0; i < pairs; i++ {
		re := float64(s.pcm.Data[2*i]) / s.scale
		im := float64(s.pcm.Data[2*i+1]) / s.scale
		buf[i] = complex(re, im)
	}
	return pairs, nil
}

// Close closes the underlying file.
func (s *WAVSource) Close() error {
	return s.f.Close()
}
