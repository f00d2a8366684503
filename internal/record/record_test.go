// SPDX-License-Identifier: MIT
package record

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"iqspect/internal/input"
	"iqspect/pkg/testsig"
)

func TestRunCopiesStream(t *testing.T) {
	samples := testsig.Tone(64, 5)
	var out bytes.Buffer
	n, err := Run(&out, &testsig.Source{Samples: samples})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 64 {
		t.Fatalf("samples = %d, want 64", n)
	}
	if !bytes.Equal(out.Bytes(), testsig.EncodeIQ(samples)) {
		t.Error("recorded bytes differ from the source stream")
	}
}

func TestRunShortReads(t *testing.T) {
	samples := testsig.DC(100, 0.5)
	var out bytes.Buffer
	n, err := Run(&out, &testsig.Source{Samples: samples, ChunkMax: 7})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 100 {
		t.Fatalf("samples = %d, want 100", n)
	}
	if !bytes.Equal(out.Bytes(), testsig.EncodeIQ(samples)) {
		t.Error("short reads changed the recorded bytes")
	}
}

// noticeSource injects a device condition once, then streams normally.
type noticeSource struct {
	inner  *testsig.Source
	notice error
}

func (s *noticeSource) Recv(buf []complex128) (int, error) {
	if s.notice != nil {
		err := s.notice
		s.notice = nil
		return 0, err
	}
	return s.inner.Recv(buf)
}

func TestRunRidesThroughOverflow(t *testing.T) {
	samples := testsig.DC(16, 1)
	src := &noticeSource{inner: &testsig.Source{Samples: samples}, notice: input.ErrOverflow}

	var out bytes.Buffer
	n, err := Run(&out, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 16 {
		t.Fatalf("samples = %d, want 16", n)
	}
	if !bytes.Equal(out.Bytes(), testsig.EncodeIQ(samples)) {
		t.Error("overflow notice changed the recorded bytes")
	}
}

// timeoutSource delivers its samples and then goes silent.
type timeoutSource struct {
	inner *testsig.Source
}

func (s *timeoutSource) Recv(buf []complex128) (int, error) {
	n, err := s.inner.Recv(buf)
	if err == io.EOF {
		return n, input.ErrTimeout
	}
	return n, err
}

func TestRunTimeoutIsFatal(t *testing.T) {
	samples := testsig.DC(8, 1)
	var out bytes.Buffer
	n, err := Run(&out, &timeoutSource{inner: &testsig.Source{Samples: samples}})
	if !errors.Is(err, input.ErrTimeout) {
		t.Fatalf("Run = %v, want ErrTimeout", err)
	}
	// Samples received before the silence are kept.
	if n != 8 {
		t.Errorf("samples = %d, want 8", n)
	}
	if !bytes.Equal(out.Bytes(), testsig.EncodeIQ(samples)) {
		t.Error("recorded bytes differ from the samples received before the timeout")
	}
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRunWriteError(t *testing.T) {
	n, err := Run(failWriter{}, &testsig.Source{Samples: testsig.DC(8, 1)})
	if err == nil {
		t.Fatal("expected write error to surface")
	}
	if n != 0 {
		t.Errorf("samples = %d after a failed write, want 0", n)
	}
}
