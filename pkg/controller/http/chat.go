package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
	"github.com/shopmate-ai/shopmate/pkg/usecase"
	"github.com/shopmate-ai/shopmate/pkg/utils/errutil"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

type chatRequest struct {
	Message string `json:"message"`
	ConvID  *int64 `json:"conv_id,omitempty"`
}

// chatHandler streams one turn as Server-Sent Events. The deferred Done
// guarantees a terminal event even when the turn panics.
func chatHandler(turn TurnUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid chat request body"), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(usecase.ErrEmptyMessage, "invalid chat request"), http.StatusBadRequest)
			return
		}

		stream := NewStream(w)
		defer stream.Done(context.WithoutCancel(ctx), model.DonePayload{Status: types.TurnStatusError})

		status := turn.HandleTurn(ctx, usecase.TurnInput{
			UserID:         userIDFrom(ctx),
			ConversationID: req.ConvID,
			Message:        req.Message,
		}, stream)

		logging.From(ctx).Debug("chat turn finished", "status", status)
	}
}
