package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/shopmate-ai/shopmate/pkg/controller/http"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

// brokenWriter accepts headers but fails every body write after the first n
type brokenWriter struct {
	*httptest.ResponseRecorder
	allowed int
	writes  int
}

func (w *brokenWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > w.allowed {
		return 0, errors.New("broken pipe")
	}
	return w.ResponseRecorder.Write(p)
}

func TestStreamFraming(t *testing.T) {
	ctx := context.Background()
	rec := httptest.NewRecorder()
	stream := httpctrl.NewStream(rec)

	gt.NoError(t, stream.Send(ctx, model.EventDelta, model.DeltaPayload{Text: "hi"}))
	gt.NoError(t, stream.Send(ctx, model.EventError, model.ErrorPayload{Message: "oops"}))
	stream.Done(ctx, model.DonePayload{Status: types.TurnStatusError})
	stream.Done(ctx, model.DonePayload{Status: types.TurnStatusComplete})

	gt.V(t, rec.Code).Equal(http.StatusOK)
	gt.B(t, rec.Flushed).True()
	gt.V(t, rec.Body.String()).Equal(
		"event: delta\ndata: {\"text\":\"hi\"}\n\n" +
			"event: error\ndata: {\"message\":\"oops\"}\n\n" +
			"event: done\ndata: {\"status\":\"error\"}\n\n")
}

func TestStreamDeadAfterWriteFailure(t *testing.T) {
	ctx := context.Background()
	w := &brokenWriter{ResponseRecorder: httptest.NewRecorder(), allowed: 1}
	stream := httpctrl.NewStream(w)

	gt.NoError(t, stream.Send(ctx, model.EventDelta, model.DeltaPayload{Text: "first"}))

	err := stream.Send(ctx, model.EventDelta, model.DeltaPayload{Text: "second"})
	gt.Error(t, err)
	gt.B(t, errors.Is(err, httpctrl.ErrStreamClosed)).True()

	err = stream.Send(ctx, model.EventDelta, model.DeltaPayload{Text: "third"})
	gt.B(t, errors.Is(err, httpctrl.ErrStreamClosed)).True()

	stream.Done(ctx, model.DonePayload{Status: types.TurnStatusClientDisconnected})

	// only the failed second write reached the connection
	gt.V(t, w.writes).Equal(2)
	gt.B(t, strings.Contains(w.Body.String(), "second")).False()
}

func TestStreamUnencodablePayload(t *testing.T) {
	ctx := context.Background()
	rec := httptest.NewRecorder()
	stream := httpctrl.NewStream(rec)

	gt.Error(t, stream.Send(ctx, model.EventDelta, make(chan int)))
	gt.NoError(t, stream.Send(ctx, model.EventDelta, model.DeltaPayload{Text: "still alive"}))
}
