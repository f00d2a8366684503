// SPDX-License-Identifier: MIT
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// FileSource reads raw I/Q recordings: interleaved IEEE-754 float32
// little-endian pairs (I, Q, I, Q, ...) with no header, the format
// written by GNU Radio file sinks and usrp recorders in fc32 mode.
type FileSource struct {
	f   *os.File
	r   *bufio.Reader
	raw []byte // staging buffer, grown on demand
}

// Open opens a raw I/Q file for streaming.
func Open(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open input file: %w", err)
	}
	return &FileSource{f: f, r: bufio.NewReaderSize(f, 1<<16)}, nil
}

// Recv fills buf with samples from the file. A trailing partial sample
// (odd float at EOF) is discarded.
func (s *FileSource) Recv(buf []complex128) (int, error) {
	want := len(buf) * sampleBytes
	if cap(s.raw) < want {
		s.raw = make([]byte, want)
	}
	raw := s.raw[:want]

	nb, err := io.ReadFull(s.r, raw)
	n := decodeIQ(buf, raw[:nb-nb%sampleBytes])
	switch {
	case err == nil:
		return n, nil
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return n, io.EOF
	default:
		return n, fmt.Errorf("input file read: %w", err)
	}
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}
