package host

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
)

// Channel delivers outbound messages to the host.
type Channel interface {
	Send(ctx context.Context, m Outbound) error
}

// Conn is a two-way session with a host. Receive returns io.EOF once the
// host has gone away.
type Conn interface {
	Channel
	Receive(ctx context.Context) (Inbound, error)
}

// maxLine bounds a single JSON-lines message.
const maxLine = 16 << 20

// Stream is a Conn over newline-delimited JSON, such as stdin and stdout of
// a process embedded by the host.
type Stream struct {
	scanner *bufio.Scanner

	mu sync.Mutex
	w  io.Writer
}

// NewStream reads inbound messages from r and writes outbound ones to w.
func NewStream(r io.Reader, w io.Writer) *Stream {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Stream{scanner: sc, w: w}
}

// Send writes m as one line. Concurrent sends do not interleave.
func (s *Stream) Send(ctx context.Context, m Outbound) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := Marshal(m)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(line)
	return errors.Wrapf(err, "write %s", m.Type())
}

// Receive reads the next non-blank line. The read itself is not
// interruptible; ctx is checked before it starts.
func (s *Stream) Receive(ctx context.Context) (Inbound, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, errors.Wrap(err, "read message")
			}
			return nil, io.EOF
		}

		line := s.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return DecodeInbound(line)
	}
}

// Recorder is an in-memory Channel that keeps everything sent to it.
type Recorder struct {
	mu       sync.Mutex
	messages []Outbound
}

func (r *Recorder) Send(ctx context.Context, m Outbound) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

// Messages returns a copy of every message recorded so far.
func (r *Recorder) Messages() []Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outbound(nil), r.messages...)
}

// Progress returns the recorded progress percentages in order.
func (r *Recorder) Progress() []int {
	var out []int
	for _, m := range r.Messages() {
		if p, ok := m.(ExportProgress); ok {
			out = append(out, p.Percent)
		}
	}
	return out
}

// Notifications returns the recorded Notify messages in order.
func (r *Recorder) Notifications() []Notify {
	var out []Notify
	for _, m := range r.Messages() {
		if n, ok := m.(Notify); ok {
			out = append(out, n)
		}
	}
	return out
}

// Result returns the last recorded ExportResult.
func (r *Recorder) Result() (ExportResult, bool) {
	msgs := r.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if res, ok := msgs[i].(ExportResult); ok {
			return res, true
		}
	}
	return ExportResult{}, false
}
