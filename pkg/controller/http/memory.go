package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
	"github.com/shopmate-ai/shopmate/pkg/usecase"
	"github.com/shopmate-ai/shopmate/pkg/utils/errutil"
)

const defaultSearchLimit = 5

// memoryResponse is the wire form of a memory; embeddings stay server side
type memoryResponse struct {
	Key        model.MemoryKey      `json:"key"`
	Content    string               `json:"content"`
	Category   types.MemoryCategory `json:"category"`
	Importance types.Importance     `json:"importance"`
	Source     types.MemorySource   `json:"source,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

func toMemoryResponse(m *model.Memory) memoryResponse {
	return memoryResponse{
		Key:        m.Key,
		Content:    m.Content,
		Category:   m.Metadata.Category,
		Importance: m.Metadata.Importance,
		Source:     m.Metadata.Source,
		CreatedAt:  m.Metadata.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toMemoryResponses(memories []*model.Memory) []memoryResponse {
	resp := make([]memoryResponse, len(memories))
	for i, m := range memories {
		resp[i] = toMemoryResponse(m)
	}
	return resp
}

type memoryRequest struct {
	Content    string `json:"content"`
	Category   string `json:"category"`
	Importance string `json:"importance"`
}

// metadata parses optional category and importance. Empty values stay empty
// so updates leave them unchanged and creates fall back to defaults.
func (req memoryRequest) metadata() (model.MemoryMetadata, error) {
	var meta model.MemoryMetadata
	if req.Category != "" {
		c, err := types.ParseMemoryCategory(req.Category)
		if err != nil {
			return meta, goerr.Wrap(model.ErrInvalidValue, err.Error())
		}
		meta.Category = c
	}
	if req.Importance != "" {
		imp, err := types.ParseImportance(req.Importance)
		if err != nil {
			return meta, goerr.Wrap(model.ErrInvalidValue, err.Error())
		}
		meta.Importance = imp
	}
	return meta, nil
}

func decodeMemoryRequest(r *http.Request) (memoryRequest, model.MemoryMetadata, error) {
	var req memoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, model.MemoryMetadata{}, goerr.Wrap(model.ErrInvalidValue, "invalid memory request body", goerr.V("cause", err.Error()))
	}
	meta, err := req.metadata()
	return req, meta, err
}

func listMemoriesHandler(uc MemoryUseCase) http.HandlerFunc {
	type response struct {
		Memories []memoryResponse `json:"memories"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		memories, err := uc.List(r.Context(), userIDFrom(r.Context()))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
			return
		}
		writeJSON(w, r, http.StatusOK, response{Memories: toMemoryResponses(memories)})
	}
}

func searchMemoriesHandler(uc MemoryUseCase) http.HandlerFunc {
	type response struct {
		Query    string           `json:"query"`
		Memories []memoryResponse `json:"memories"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		limit := defaultSearchLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				errutil.HandleHTTP(r.Context(), w, goerr.Wrap(model.ErrInvalidValue, "invalid limit", goerr.V("limit", raw)), http.StatusBadRequest)
				return
			}
			limit = n
		}

		memories, err := uc.Search(r.Context(), query, userIDFrom(r.Context()), limit)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
			return
		}
		writeJSON(w, r, http.StatusOK, response{Query: query, Memories: toMemoryResponses(memories)})
	}
}

func createMemoryHandler(uc MemoryUseCase) http.HandlerFunc {
	type response struct {
		Memory  memoryResponse `json:"memory"`
		Created bool           `json:"created"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		req, meta, err := decodeMemoryRequest(r)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
		meta.Source = types.MemorySourceAPI

		mem, created, err := uc.Add(r.Context(), userIDFrom(r.Context()), req.Content, meta)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, r, status, response{Memory: toMemoryResponse(mem), Created: created})
	}
}

func updateMemoryHandler(uc MemoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, meta, err := decodeMemoryRequest(r)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		key := model.MemoryKey(chi.URLParam(r, "key"))
		mem, err := uc.Update(r.Context(), userIDFrom(r.Context()), key, usecase.MemoryUpdate{
			Content:  req.Content,
			Metadata: meta,
		})
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
			return
		}
		writeJSON(w, r, http.StatusOK, toMemoryResponse(mem))
	}
}

func deleteMemoryHandler(uc MemoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := model.MemoryKey(chi.URLParam(r, "key"))
		if err := uc.Delete(r.Context(), userIDFrom(r.Context()), key); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
