package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/shopmate-ai/shopmate/pkg/controller/http"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/model/config"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
	"github.com/shopmate-ai/shopmate/pkg/repository/memory"
	"github.com/shopmate-ai/shopmate/pkg/usecase"
)

type mockTurn struct {
	handle func(ctx context.Context, in usecase.TurnInput, sink interfaces.EventSink) types.TurnStatus
	calls  []usecase.TurnInput
}

func (m *mockTurn) HandleTurn(ctx context.Context, in usecase.TurnInput, sink interfaces.EventSink) types.TurnStatus {
	m.calls = append(m.calls, in)
	return m.handle(ctx, in, sink)
}

type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.name != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		}
	}
	gt.NoError(t, scanner.Err())
	return events
}

func countEvents(events []sseEvent, name string) int {
	n := 0
	for _, e := range events {
		if e.name == name {
			n++
		}
	}
	return n
}

func newServer(t *testing.T, turn httpctrl.TurnUseCase) (*httpctrl.Server, *usecase.UseCases, interfaces.Repository) {
	t.Helper()
	repo := memory.New()
	uc := usecase.New(repo, nil, nil)
	srv, err := httpctrl.New(turn, httpctrl.FromUseCases(uc)...)
	gt.NoError(t, err)
	return srv, uc, repo
}

func doRequest(srv http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req.Header.Set(httpctrl.UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestNewRequiresTurn(t *testing.T) {
	_, err := httpctrl.New(nil)
	gt.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv, _, _ := newServer(t, &mockTurn{})
	w := doRequest(srv, http.MethodGet, "/health", "", "")
	gt.V(t, w.Code).Equal(http.StatusOK)
	gt.S(t, w.Body.String()).Contains(`"ok"`)
}

func TestChat(t *testing.T) {
	t.Run("streams events in order with headers", func(t *testing.T) {
		turn := &mockTurn{handle: func(ctx context.Context, in usecase.TurnInput, sink interfaces.EventSink) types.TurnStatus {
			gt.NoError(t, sink.Send(ctx, model.EventConvID, model.ConvIDPayload{ConvID: 7}))
			gt.NoError(t, sink.Send(ctx, model.EventDelta, model.DeltaPayload{Text: "hello"}))
			sink.Done(ctx, model.DonePayload{Status: types.TurnStatusComplete})
			return types.TurnStatusComplete
		}}
		srv, _, _ := newServer(t, turn)

		w := doRequest(srv, http.MethodPost, "/api/chat", "alice", `{"message":"hi"}`)
		gt.V(t, w.Code).Equal(http.StatusOK)
		gt.V(t, w.Header().Get("Content-Type")).Equal("text/event-stream")
		gt.V(t, w.Header().Get("Cache-Control")).Equal("no-cache")
		gt.V(t, w.Header().Get("Connection")).Equal("keep-alive")
		gt.V(t, w.Header().Get("X-Accel-Buffering")).Equal("no")

		events := parseSSE(t, w.Body.String())
		gt.A(t, events).Length(3)
		gt.V(t, events[0].name).Equal("conv_id")
		gt.V(t, events[0].data).Equal(`{"conv_id":7}`)
		gt.V(t, events[1].name).Equal("delta")
		gt.V(t, events[2].name).Equal("done")
		gt.V(t, events[2].data).Equal(`{"status":"complete"}`)

		gt.A(t, turn.calls).Length(1)
		gt.V(t, turn.calls[0].UserID).Equal("alice")
		gt.V(t, turn.calls[0].Message).Equal("hi")
		gt.B(t, turn.calls[0].ConversationID == nil).True()
	})

	t.Run("passes conversation id and defaults user", func(t *testing.T) {
		turn := &mockTurn{handle: func(ctx context.Context, in usecase.TurnInput, sink interfaces.EventSink) types.TurnStatus {
			sink.Done(ctx, model.DonePayload{Status: types.TurnStatusComplete})
			return types.TurnStatusComplete
		}}
		srv, _, _ := newServer(t, turn)

		w := doRequest(srv, http.MethodPost, "/api/chat", "", `{"message":"again","conv_id":42}`)
		gt.V(t, w.Code).Equal(http.StatusOK)
		gt.A(t, turn.calls).Length(1)
		gt.V(t, turn.calls[0].UserID).Equal("anonymous")
		gt.V(t, turn.calls[0].ConversationID).NotNil()
		gt.V(t, *turn.calls[0].ConversationID).Equal(int64(42))
	})

	t.Run("empty message is rejected without a stream", func(t *testing.T) {
		turn := &mockTurn{}
		srv, _, _ := newServer(t, turn)

		w := doRequest(srv, http.MethodPost, "/api/chat", "alice", `{"message":"   "}`)
		gt.V(t, w.Code).Equal(http.StatusBadRequest)
		gt.V(t, w.Header().Get("Content-Type")).Equal("application/json")
		gt.S(t, w.Body.String()).Contains("message is empty")
		gt.A(t, turn.calls).Length(0)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		srv, _, _ := newServer(t, &mockTurn{})
		w := doRequest(srv, http.MethodPost, "/api/chat", "alice", `{"message":`)
		gt.V(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("missing done is filled with error", func(t *testing.T) {
		turn := &mockTurn{handle: func(ctx context.Context, in usecase.TurnInput, sink interfaces.EventSink) types.TurnStatus {
			gt.NoError(t, sink.Send(ctx, model.EventDelta, model.DeltaPayload{Text: "partial"}))
			return types.TurnStatusError
		}}
		srv, _, _ := newServer(t, turn)

		w := doRequest(srv, http.MethodPost, "/api/chat", "alice", `{"message":"hi"}`)
		events := parseSSE(t, w.Body.String())
		gt.V(t, countEvents(events, "done")).Equal(1)
		gt.V(t, events[len(events)-1].data).Equal(`{"status":"error"}`)
	})

	t.Run("panic still yields exactly one done", func(t *testing.T) {
		turn := &mockTurn{handle: func(ctx context.Context, in usecase.TurnInput, sink interfaces.EventSink) types.TurnStatus {
			gt.NoError(t, sink.Send(ctx, model.EventPlannerStatus, model.PlannerStatusPayload{State: types.PlannerStatePlanning, Plan: []*model.Task{}}))
			panic("boom")
		}}
		srv, _, _ := newServer(t, turn)

		w := doRequest(srv, http.MethodPost, "/api/chat", "alice", `{"message":"hi"}`)
		events := parseSSE(t, w.Body.String())
		gt.V(t, countEvents(events, "done")).Equal(1)
		gt.V(t, countEvents(events, "planner_status")).Equal(1)
	})
}

func TestConversationEndpoints(t *testing.T) {
	srv, _, repo := newServer(t, &mockTurn{})
	ctx := context.Background()

	conv, err := repo.Conversation().Create(ctx, &model.Conversation{UserID: "alice", Title: "shoes"})
	gt.NoError(t, err)
	_, err = repo.Message().Append(ctx, &model.Message{ConversationID: conv.ID, Role: types.RoleUser, Content: "find shoes"})
	gt.NoError(t, err)
	_, err = repo.AgentRun().Create(ctx, &model.AgentRun{ConversationID: conv.ID, Status: types.TurnStatusComplete, Tasks: []*model.Task{}})
	gt.NoError(t, err)

	t.Run("list returns caller conversations", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/api/conversations", "alice", "")
		gt.V(t, w.Code).Equal(http.StatusOK)

		var resp struct {
			Conversations []*model.Conversation `json:"conversations"`
		}
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		gt.A(t, resp.Conversations).Length(1)
		gt.V(t, resp.Conversations[0].Title).Equal("shoes")

		w = doRequest(srv, http.MethodGet, "/api/conversations", "bob", "")
		gt.V(t, w.Code).Equal(http.StatusOK)
		gt.S(t, w.Body.String()).Contains(`"conversations":[]`)
	})

	t.Run("messages and runs of own conversation", func(t *testing.T) {
		path := "/api/conversations/" + itoa(conv.ID)

		w := doRequest(srv, http.MethodGet, path+"/messages", "alice", "")
		gt.V(t, w.Code).Equal(http.StatusOK)
		gt.S(t, w.Body.String()).Contains("find shoes")

		w = doRequest(srv, http.MethodGet, path+"/runs", "alice", "")
		gt.V(t, w.Code).Equal(http.StatusOK)
		gt.S(t, w.Body.String()).Contains(`"status":"complete"`)
	})

	t.Run("foreign conversation is not found", func(t *testing.T) {
		path := "/api/conversations/" + itoa(conv.ID)
		gt.V(t, doRequest(srv, http.MethodGet, path+"/messages", "bob", "").Code).Equal(http.StatusNotFound)
		gt.V(t, doRequest(srv, http.MethodGet, path+"/runs", "bob", "").Code).Equal(http.StatusNotFound)
	})

	t.Run("invalid id is a bad request", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/api/conversations/abc/messages", "alice", "")
		gt.V(t, w.Code).Equal(http.StatusBadRequest)
	})
}

func TestMemoryEndpoints(t *testing.T) {
	srv, _, _ := newServer(t, &mockTurn{})

	type memoryJSON struct {
		Key        string `json:"key"`
		Content    string `json:"content"`
		Category   string `json:"category"`
		Importance string `json:"importance"`
		Source     string `json:"source"`
	}

	var created memoryJSON
	t.Run("create", func(t *testing.T) {
		w := doRequest(srv, http.MethodPost, "/api/memories", "alice",
			`{"content":"Prefers free shipping","category":"preference","importance":"high"}`)
		gt.V(t, w.Code).Equal(http.StatusCreated)

		var resp struct {
			Memory  memoryJSON `json:"memory"`
			Created bool       `json:"created"`
		}
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		gt.B(t, resp.Created).True()
		gt.V(t, resp.Memory.Category).Equal("preference")
		gt.V(t, resp.Memory.Importance).Equal("high")
		gt.V(t, resp.Memory.Source).Equal("api")
		gt.B(t, strings.Contains(w.Body.String(), "embedding")).False()
		created = resp.Memory
	})

	t.Run("duplicate returns existing", func(t *testing.T) {
		w := doRequest(srv, http.MethodPost, "/api/memories", "alice", `{"content":"prefers free shipping"}`)
		gt.V(t, w.Code).Equal(http.StatusOK)
		gt.S(t, w.Body.String()).Contains(`"created":false`)
		gt.S(t, w.Body.String()).Contains(created.Key)
	})

	t.Run("invalid category is rejected", func(t *testing.T) {
		w := doRequest(srv, http.MethodPost, "/api/memories", "alice", `{"content":"x","category":"mood"}`)
		gt.V(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("empty content is rejected", func(t *testing.T) {
		w := doRequest(srv, http.MethodPost, "/api/memories", "alice", `{"content":"  "}`)
		gt.V(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("list is scoped to the caller", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/api/memories", "alice", "")
		gt.V(t, w.Code).Equal(http.StatusOK)
		gt.S(t, w.Body.String()).Contains("Prefers free shipping")

		w = doRequest(srv, http.MethodGet, "/api/memories", "bob", "")
		gt.S(t, w.Body.String()).Contains(`"memories":[]`)
	})

	t.Run("search", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/api/memories/search?q=shipping&limit=3", "alice", "")
		gt.V(t, w.Code).Equal(http.StatusOK)
		gt.S(t, w.Body.String()).Contains("Prefers free shipping")

		w = doRequest(srv, http.MethodGet, "/api/memories/search?q=shipping&limit=zero", "alice", "")
		gt.V(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("update", func(t *testing.T) {
		w := doRequest(srv, http.MethodPut, "/api/memories/"+created.Key, "alice", `{"content":"Prefers express shipping"}`)
		gt.V(t, w.Code).Equal(http.StatusOK)

		var resp memoryJSON
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		gt.V(t, resp.Content).Equal("Prefers express shipping")
		gt.V(t, resp.Category).Equal("preference")

		w = doRequest(srv, http.MethodPut, "/api/memories/"+created.Key, "bob", `{"content":"hijack"}`)
		gt.V(t, w.Code).Equal(http.StatusNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		gt.V(t, doRequest(srv, http.MethodDelete, "/api/memories/"+created.Key, "bob", "").Code).Equal(http.StatusNotFound)
		gt.V(t, doRequest(srv, http.MethodDelete, "/api/memories/"+created.Key, "alice", "").Code).Equal(http.StatusNoContent)
		gt.V(t, doRequest(srv, http.MethodDelete, "/api/memories/"+created.Key, "alice", "").Code).Equal(http.StatusNotFound)
	})
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestMemoryCreatePrunedOnInsert(t *testing.T) {
	cfg := config.DefaultAppConfig()
	cfg.Memory.MaxPerUser = 1
	uc := usecase.New(memory.New(), nil, cfg)
	srv, err := httpctrl.New(&mockTurn{}, httpctrl.FromUseCases(uc)...)
	gt.NoError(t, err).Required()

	w := doRequest(srv, http.MethodPost, "/api/memories", "alice", `{"content":"ships only within the EU","importance":"high"}`)
	gt.Value(t, w.Code).Equal(http.StatusCreated)

	w = doRequest(srv, http.MethodPost, "/api/memories", "alice", `{"content":"likes blue packaging","importance":"low"}`)
	gt.Value(t, w.Code).Equal(http.StatusConflict)

	w = doRequest(srv, http.MethodGet, "/api/memories", "alice", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.String(t, w.Body.String()).Contains("ships only within the EU")
	gt.B(t, strings.Contains(w.Body.String(), "blue packaging")).False()
}
