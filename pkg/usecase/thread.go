package usecase

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

const minAutonomySamples = 3

var (
	explicitHighPhrases = []string{"don't ask me again", "dont ask me again", "stop asking", "just do it from now on"}
	explicitLowPhrases  = []string{"always confirm", "always ask", "ask me first"}

	confirmPattern    = regexp.MustCompile(`(?i)^\s*(yes|yep|yeah|sure|ok|okay|go ahead|do it|confirm(ed)?|approved?|sounds good|proceed)\b`)
	rejectPattern     = regexp.MustCompile(`(?i)^\s*(no|nope|don'?t|do not|cancel|stop|wait|never\s?mind|reject(ed)?)\b`)
	askConfirmPattern = regexp.MustCompile(`(?i)(shall i|should i|would you like me to|do you want me to|\bconfirm\b|proceed\?)`)
)

// AsksConfirmation reports whether an assistant response asks the user to approve an operation
func AsksConfirmation(text string) bool {
	return askConfirmPattern.MatchString(text)
}

type threadEntry struct {
	role    types.Role
	content string
}

type threadState struct {
	log        []threadEntry
	confirmed  int
	rejected   int
	explicit   types.AutonomyLevel
	pending    string
	lastActive time.Time
}

// ThreadTracker keeps a rolling log per conversation and infers how much
// autonomy the user grants from their answers to confirmation requests.
// State is soft: evicted threads are rebuilt from persisted messages.
type ThreadTracker struct {
	mu      sync.Mutex
	threads map[int64]*threadState
	logSize int
	now     func() time.Time
}

func NewThreadTracker(logSize int) *ThreadTracker {
	if logSize <= 0 {
		logSize = 50
	}
	return &ThreadTracker{
		threads: make(map[int64]*threadState),
		logSize: logSize,
		now:     time.Now,
	}
}

func (t *ThreadTracker) thread(convID int64) *threadState {
	th, ok := t.threads[convID]
	if !ok {
		th = &threadState{}
		t.threads[convID] = th
	}
	th.lastActive = t.now()
	return th
}

// Ensure rebuilds the conversation state from messages unless it is already
// held in memory. It reports whether a rebuild happened.
func (t *ThreadTracker) Ensure(convID int64, messages []*model.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.threads[convID]; ok {
		return false
	}
	t.threads[convID] = t.replay(messages)
	return true
}

// Observe appends a message to the conversation log and updates the autonomy signal
func (t *ThreadTracker) Observe(convID int64, role types.Role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe(t.thread(convID), role, content)
}

func (t *ThreadTracker) observe(th *threadState, role types.Role, content string) {
	th.log = append(th.log, threadEntry{role: role, content: content})
	if over := len(th.log) - t.logSize; over > 0 {
		th.log = append([]threadEntry(nil), th.log[over:]...)
	}
	if role != types.RoleUser {
		return
	}

	lower := strings.ToLower(content)
	for _, p := range explicitHighPhrases {
		if strings.Contains(lower, p) {
			th.explicit = types.AutonomyHigh
			return
		}
	}
	for _, p := range explicitLowPhrases {
		if strings.Contains(lower, p) {
			th.explicit = types.AutonomyLow
			return
		}
	}

	if th.pending == "" {
		return
	}
	switch {
	case rejectPattern.MatchString(content):
		th.rejected++
		th.pending = ""
	case confirmPattern.MatchString(content):
		th.confirmed++
		th.pending = ""
	}
}

// MarkPending records that the assistant is waiting for the user to approve operation
func (t *ThreadTracker) MarkPending(convID int64, operation string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.thread(convID).pending = operation
}

// Autonomy returns the inferred autonomy level for the conversation
func (t *ThreadTracker) Autonomy(convID int64) types.AutonomyLevel {
	t.mu.Lock()
	defer t.mu.Unlock()

	th, ok := t.threads[convID]
	if !ok {
		return types.AutonomyMedium
	}
	if th.explicit != "" {
		return th.explicit
	}

	total := th.confirmed + th.rejected
	if total < minAutonomySamples {
		return types.AutonomyMedium
	}

	rate := float64(th.confirmed) / float64(total)
	switch {
	case rate >= 0.9:
		return types.AutonomyHigh
	case rate >= 0.7:
		return types.AutonomyMedium
	default:
		return types.AutonomyLow
	}
}

// Rebuild replaces the conversation state by replaying persisted messages
func (t *ThreadTracker) Rebuild(convID int64, messages []*model.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threads[convID] = t.replay(messages)
}

// replay derives thread state from a persisted log. Assistant messages asking
// for confirmation reopen the pending operation the controller marked live.
func (t *ThreadTracker) replay(messages []*model.Message) *threadState {
	th := &threadState{lastActive: t.now()}
	for _, m := range messages {
		t.observe(th, m.Role, m.Content)
		if m.Role == types.RoleAssistant && AsksConfirmation(m.Content) {
			th.pending = m.Content
		}
	}
	return th
}

// Sweep evicts threads idle for longer than idle and returns how many were removed
func (t *ThreadTracker) Sweep(now time.Time, idle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, th := range t.threads {
		if now.Sub(th.lastActive) > idle {
			delete(t.threads, id)
			evicted++
		}
	}
	return evicted
}
