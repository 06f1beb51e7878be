package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
	"github.com/shopmate-ai/shopmate/pkg/usecase"
	"github.com/shopmate-ai/shopmate/pkg/utils/errutil"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

// TurnUseCase runs one chat turn against an event sink
type TurnUseCase interface {
	HandleTurn(ctx context.Context, in usecase.TurnInput, sink interfaces.EventSink) types.TurnStatus
}

// ConversationUseCase reads the caller's conversation history
type ConversationUseCase interface {
	List(ctx context.Context, userID string) ([]*model.Conversation, error)
	Messages(ctx context.Context, userID string, id int64) ([]*model.Message, error)
	Runs(ctx context.Context, userID string, id int64) ([]*model.AgentRun, error)
}

// MemoryUseCase manages the caller's stored facts
type MemoryUseCase interface {
	List(ctx context.Context, userID string) ([]*model.Memory, error)
	Search(ctx context.Context, query, userID string, limit int) ([]*model.Memory, error)
	Add(ctx context.Context, userID, content string, meta model.MemoryMetadata) (*model.Memory, bool, error)
	Update(ctx context.Context, userID string, key model.MemoryKey, upd usecase.MemoryUpdate) (*model.Memory, error)
	Delete(ctx context.Context, userID string, key model.MemoryKey) error
}

type Server struct {
	router        *chi.Mux
	turn          TurnUseCase
	conversations ConversationUseCase
	memories      MemoryUseCase
}

type Options func(*Server)

func WithConversations(uc ConversationUseCase) Options {
	return func(s *Server) {
		s.conversations = uc
	}
}

func WithMemories(uc MemoryUseCase) Options {
	return func(s *Server) {
		s.memories = uc
	}
}

// FromUseCases wires every REST surface backed by uc
func FromUseCases(uc *usecase.UseCases) []Options {
	return []Options{
		WithConversations(uc.Conversation),
		WithMemories(uc.Memory),
	}
}

func New(turn TurnUseCase, opts ...Options) (*Server, error) {
	if turn == nil {
		return nil, goerr.New("turn use case is required")
	}

	r := chi.NewRouter()
	s := &Server{
		router: r,
		turn:   turn,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(userMiddleware)

		r.Post("/chat", chatHandler(s.turn))

		if s.conversations != nil {
			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", listConversationsHandler(s.conversations))
				r.Get("/{id}/messages", conversationMessagesHandler(s.conversations))
				r.Get("/{id}/runs", conversationRunsHandler(s.conversations))
			})
		}

		if s.memories != nil {
			r.Route("/memories", func(r chi.Router) {
				r.Get("/", listMemoriesHandler(s.memories))
				r.Get("/search", searchMemoriesHandler(s.memories))
				r.Post("/", createMemoryHandler(s.memories))
				r.Put("/{key}", updateMemoryHandler(s.memories))
				r.Delete("/{key}", deleteMemoryHandler(s.memories))
			})
		}
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrConversationNotFound),
		errors.Is(err, usecase.ErrMemoryNotFound),
		errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrEmptyMessage),
		errors.Is(err, usecase.ErrEmptyContent),
		errors.Is(err, model.ErrMissingRequired),
		errors.Is(err, model.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrMemoryPruned):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
