package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

type mockRunner struct {
	mu      sync.Mutex
	allowed []string
	runFn   func(ctx context.Context, req *model.AgentRequest) (*model.AgentResult, error)
	calls   []*model.AgentRequest
}

func (m *mockRunner) Run(ctx context.Context, req *model.AgentRequest) (*model.AgentResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.runFn == nil {
		return &model.AgentResult{Text: "ok"}, nil
	}
	return m.runFn(ctx, req)
}

func (m *mockRunner) AllowedTools() []string {
	return m.allowed
}

func (m *mockRunner) callsNamed(name string) []*model.AgentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AgentRequest
	for _, c := range m.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

type sentEvent struct {
	name    model.EventName
	payload any
}

// recordingSink captures events. It fails every Send after failAfter events
// when failAfter is positive.
type recordingSink struct {
	mu        sync.Mutex
	events    []sentEvent
	done      []model.DonePayload
	failAfter int
	onSend    func(name model.EventName)
}

var errClientGone = errors.New("client gone")

func (s *recordingSink) Send(ctx context.Context, name model.EventName, payload any) error {
	s.mu.Lock()
	if s.failAfter > 0 && len(s.events) >= s.failAfter {
		s.mu.Unlock()
		return errClientGone
	}
	s.events = append(s.events, sentEvent{name: name, payload: payload})
	hook := s.onSend
	s.mu.Unlock()
	if hook != nil {
		hook(name)
	}
	return nil
}

func (s *recordingSink) Done(ctx context.Context, status model.DonePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = append(s.done, status)
}

func (s *recordingSink) named(name model.EventName) []sentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentEvent
	for _, e := range s.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

type recordingLogSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingLogSink) Record(ctx context.Context, event string, attrs ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func containsText(s, sub string) bool {
	return strings.Contains(s, sub)
}
