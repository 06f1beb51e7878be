package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/utils/errutil"
)

func conversationID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.Wrap(model.ErrInvalidValue, "invalid conversation id", goerr.V(model.ConversationIDKey, raw))
	}
	return id, nil
}

func listConversationsHandler(uc ConversationUseCase) http.HandlerFunc {
	type response struct {
		Conversations []*model.Conversation `json:"conversations"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		convs, err := uc.List(r.Context(), userIDFrom(r.Context()))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
			return
		}
		if convs == nil {
			convs = []*model.Conversation{}
		}
		writeJSON(w, r, http.StatusOK, response{Conversations: convs})
	}
}

func conversationMessagesHandler(uc ConversationUseCase) http.HandlerFunc {
	type response struct {
		Messages []*model.Message `json:"messages"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := conversationID(r)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		messages, err := uc.Messages(r.Context(), userIDFrom(r.Context()), id)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
			return
		}
		if messages == nil {
			messages = []*model.Message{}
		}
		writeJSON(w, r, http.StatusOK, response{Messages: messages})
	}
}

func conversationRunsHandler(uc ConversationUseCase) http.HandlerFunc {
	type response struct {
		Runs []*model.AgentRun `json:"runs"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := conversationID(r)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		runs, err := uc.Runs(r.Context(), userIDFrom(r.Context()), id)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
			return
		}
		if runs == nil {
			runs = []*model.AgentRun{}
		}
		writeJSON(w, r, http.StatusOK, response{Runs: runs})
	}
}
