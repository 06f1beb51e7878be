package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

// ErrStreamClosed is returned by Send after the client went away
var ErrStreamClosed = errors.New("event stream closed")

// Stream writes turn events to a Server-Sent Events response. Writes are
// serialized so events reach the client in issuance order.
type Stream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	dead    bool
	once    sync.Once
}

var _ interfaces.EventSink = (*Stream)(nil)

// NewStream writes the SSE response headers and returns the stream
func NewStream(w http.ResponseWriter) *Stream {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s := &Stream{w: w}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	s.flush()
	return s
}

func (s *Stream) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

func encodeFrame(name model.EventName, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal event payload", goerr.V("event", name))
	}

	var buf bytes.Buffer
	buf.WriteString("event: ")
	buf.WriteString(string(name))
	buf.WriteString("\ndata: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// Send writes one event frame. After the first failed write every later
// call returns ErrStreamClosed without touching the connection.
func (s *Stream) Send(ctx context.Context, name model.EventName, payload any) error {
	frame, err := encodeFrame(name, payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dead {
		return ErrStreamClosed
	}
	if _, err := s.w.Write(frame); err != nil {
		s.dead = true
		logging.From(ctx).Debug("client disconnected", "event", name, "error", err.Error())
		return goerr.Wrap(ErrStreamClosed, "failed to write event", goerr.V("event", name), goerr.V("cause", err.Error()))
	}
	s.flush()
	return nil
}

// Done writes the terminal event. Only the first call has an effect.
func (s *Stream) Done(ctx context.Context, status model.DonePayload) {
	s.once.Do(func() {
		if err := s.Send(ctx, model.EventDone, status); err != nil {
			logging.From(ctx).Debug("terminal event not delivered", "status", status.Status, "error", err.Error())
		}
	})
}
