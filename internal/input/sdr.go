// SPDX-License-Identifier: MIT
package input

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultRecvTimeout bounds how long Recv waits for the receiver to
// produce samples before reporting ErrTimeout.
const DefaultRecvTimeout = 5 * time.Second

// SDRConfig describes the receiver session for a live capture.
type SDRConfig struct {
	Address      string  // host:port of the streaming server
	CenterHz     float64 // RX center frequency
	SampleRateHz float64 // receiver sample rate
	GainDB       float64 // RX chain gain
	MaxSamples   uint64  // total sample cap; 0 means unbounded
	Timeout      time.Duration
}

// tuneRequest is the control message sent after connecting.
type tuneRequest struct {
	Type       string  `json:"type"`
	SessionID  string  `json:"session_id"`
	Frequency  float64 `json:"frequency"`
	SampleRate float64 `json:"sample_rate"`
	Gain       float64 `json:"gain"`
}

// SDRSource streams complex samples from a receiver over WebSocket.
// Binary messages carry interleaved little-endian float32 I/Q; text
// messages carry device notices ("overflow" when the device dropped
// samples). The source stops at MaxSamples so live runs are bounded.
//
// Not safe for concurrent use; the dispatcher is the only reader.
type SDRSource struct {
	conn     *websocket.Conn
	cfg      SDRConfig
	pending  []byte // undecoded bytes from the last binary message
	received uint64
}

// Dial connects to the streaming server at cfg.Address and tunes the
// receiver.
func Dial(cfg SDRConfig) (*SDRSource, error) {
	u := url.URL{Scheme: "ws", Host: cfg.Address, Path: "/iq"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to receiver at %s: %w", cfg.Address, err)
	}

	tune := tuneRequest{
		Type:       "tune",
		SessionID:  uuid.New().String(),
		Frequency:  cfg.CenterHz,
		SampleRate: cfg.SampleRateHz,
		Gain:       cfg.GainDB,
	}
	if err := conn.WriteJSON(tune); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot tune receiver: %w", err)
	}

	return &SDRSource{conn: conn, cfg: cfg}, nil
}

// Recv fills buf with samples from the receiver stream.
func (s *SDRSource) Recv(buf []complex128) (int, error) {
	if s.cfg.MaxSamples > 0 && s.received >= s.cfg.MaxSamples {
		return 0, io.EOF
	}
	if len(buf) == 0 {
		return 0, nil
	}

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRecvTimeout
	}

	for len(s.pending) < sampleBytes {
		if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return 0, fmt.Errorf("receiver stream: %w", err)
		}
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			var nerr net.Error
			switch {
			case errors.As(err, &nerr) && nerr.Timeout():
				return 0, ErrTimeout
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				return 0, io.EOF
			default:
				return 0, fmt.Errorf("receiver stream: %w", err)
			}
		}
		switch msgType {
		case websocket.TextMessage:
			if string(data) == "overflow" {
				return 0, ErrOverflow
			}
			// Other notices are informational and skipped.
		case websocket.BinaryMessage:
			s.pending = append(s.pending, data...)
		}
	}

	n := len(s.pending) / sampleBytes
	if n > len(buf) {
		n = len(buf)
	}
	if s.cfg.MaxSamples > 0 {
		if remaining := s.cfg.MaxSamples - s.received; uint64(n) > remaining {
			n = int(remaining)
		}
	}

	decodeIQ(buf[:n], s.pending[:n*sampleBytes])
	rest := copy(s.pending, s.pending[n*sampleBytes:])
	s.pending = s.pending[:rest]
	s.received += uint64(n)
	return n, nil
}

// Received reports how many samples the source has delivered.
func (s *SDRSource) Received() uint64 {
	return s.received
}

// Close announces a clean shutdown to the server and drops the
// connection.
func (s *SDRSource) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}
