package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/agent/tool"
	"github.com/shopmate-ai/shopmate/pkg/agent/tool/core"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
	"github.com/shopmate-ai/shopmate/pkg/utils/async"
	"github.com/shopmate-ai/shopmate/pkg/utils/errutil"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

const (
	memoryContextLimit = 5
	maxResultRunes     = 500

	synthesisFailedMessage = "I ran into a problem writing up the results. Here is what the steps returned."
	primaryFailedMessage   = "Sorry, I couldn't complete that request. Please try again."
)

// TurnInput is one user message posted to the chat endpoint
type TurnInput struct {
	UserID         string
	ConversationID *int64
	Message        string
}

// TurnUseCase runs one conversational turn: plan, execute tasks in order,
// synthesize a reply and persist the outcome while streaming events
type TurnUseCase struct {
	repo       interfaces.Repository
	runner     interfaces.AgentRunner
	planner    *Planner
	memory     *MemoryUseCase
	threads    *ThreadTracker
	extraction *ExtractionUseCase
	titles     *TitleUseCase
	logSink    interfaces.LogSink
	dispatch   func(ctx context.Context, name string, handler func(ctx context.Context) error)
	now        func() time.Time
}

type TurnOption func(*TurnUseCase)

func WithLogSink(sink interfaces.LogSink) TurnOption {
	return func(uc *TurnUseCase) {
		if sink != nil {
			uc.logSink = sink
		}
	}
}

func NewTurnUseCase(repo interfaces.Repository, runner interfaces.AgentRunner, planner *Planner, memory *MemoryUseCase, threads *ThreadTracker, extraction *ExtractionUseCase, titles *TitleUseCase, opts ...TurnOption) *TurnUseCase {
	uc := &TurnUseCase{
		repo:       repo,
		runner:     runner,
		planner:    planner,
		memory:     memory,
		threads:    threads,
		extraction: extraction,
		titles:     titles,
		logSink:    SlogSink{},
		dispatch:   async.Dispatch,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// turnStream wraps the sink and remembers the first write failure
type turnStream struct {
	sink interfaces.EventSink
	dead atomic.Bool
}

func (s *turnStream) send(ctx context.Context, name model.EventName, payload any) bool {
	if s.dead.Load() {
		return false
	}
	if err := s.sink.Send(ctx, name, payload); err != nil {
		logging.From(ctx).Info("client stream closed", "event", name, "error", err.Error())
		s.dead.Store(true)
		return false
	}
	return true
}

func (s *turnStream) alive(ctx context.Context) bool {
	return !s.dead.Load() && ctx.Err() == nil
}

// HandleTurn processes one message and always ends the stream with exactly one
// done event. The returned status is the one sent with it. A panic during the
// turn is recovered: the run is persisted and the turn ends with status error.
func (uc *TurnUseCase) HandleTurn(ctx context.Context, in TurnInput, sink interfaces.EventSink) (status types.TurnStatus) {
	stream := &turnStream{sink: sink}
	// persistence and the terminal event must survive a client disconnect
	bgCtx := context.WithoutCancel(ctx)

	var (
		conv      *model.Conversation
		tasks     []*model.Task
		reply     string
		persisted bool
	)

	status = types.TurnStatusError
	defer func() {
		if r := recover(); r != nil {
			status = types.TurnStatusError
			errutil.Handle(bgCtx, goerr.New("turn panicked", goerr.V("panic", fmt.Sprint(r))), "turn aborted")
			if conv != nil && !persisted {
				abortTasks(tasks, r)
				uc.persist(bgCtx, conv.ID, status, tasks, reply)
			}
		}
		sink.Done(bgCtx, model.DonePayload{Status: status})
	}()

	message := strings.TrimSpace(in.Message)
	if message == "" {
		stream.send(ctx, model.EventError, model.ErrorPayload{Message: ErrEmptyMessage.Error()})
		return status
	}

	resolved, isNew, err := uc.resolveConversation(ctx, in)
	if err != nil {
		errutil.Handle(ctx, err, "cannot start turn")
		stream.send(ctx, model.EventError, model.ErrorPayload{Message: userFacingError(err)})
		return status
	}
	conv = resolved

	logger := logging.From(ctx).With("conversation_id", conv.ID, "user_id", in.UserID)
	ctx = logging.With(ctx, logger)
	bgCtx = logging.With(bgCtx, logger)

	if isNew {
		stream.send(ctx, model.EventConvID, model.ConvIDPayload{ConvID: conv.ID})
	}

	history := uc.recordUserMessage(ctx, conv, message, isNew)
	uc.logSink.Record(ctx, "turn_start", "conversation_id", conv.ID, "new", isNew)

	// PLANNING
	stream.send(ctx, model.EventPlannerStatus, model.PlannerStatusPayload{State: types.PlannerStatePlanning, Plan: []*model.Task{}})
	plan := uc.planner.Plan(ctx, message, history)
	tasks = model.NewTasks(plan)
	uc.logSink.Record(ctx, "plan_ready", "tasks", len(tasks), "degraded", plan.IsDegraded(), "reason", plan.Reason)
	stream.send(ctx, model.EventPlannerStatus, model.PlannerStatusPayload{State: types.PlannerStateExecuting, Plan: tasks})

	guide := agentPromptData{
		Request:  message,
		Autonomy: uc.threads.Autonomy(conv.ID).Guidance(),
		Memory:   uc.memory.Context(ctx, in.UserID, message, memoryContextLimit),
		Now:      uc.now().UTC().Format(time.RFC3339),
	}

	status = types.TurnStatusComplete

	if plan.IsEmpty() {
		text, err := uc.runPrimary(ctx, stream, in.UserID, conv.ID, guide)
		switch {
		case !stream.alive(ctx):
			status = types.TurnStatusClientDisconnected
		case err != nil:
			errutil.Handle(ctx, err, "primary agent failed")
			stream.send(ctx, model.EventError, model.ErrorPayload{Message: primaryFailedMessage})
			status = types.TurnStatusError
		default:
			reply = text
		}
	} else {
		// EXECUTING
		for _, task := range tasks {
			if !stream.alive(ctx) {
				status = types.TurnStatusClientDisconnected
				break
			}
			uc.executeTask(ctx, stream, task, guide)
		}
		if status != types.TurnStatusClientDisconnected && !stream.alive(ctx) {
			status = types.TurnStatusClientDisconnected
		}

		// SYNTHESIZING
		if status == types.TurnStatusComplete {
			text, err := uc.synthesize(ctx, message, tasks, guide)
			if err != nil {
				errutil.Handle(ctx, err, "synthesis failed")
				stream.send(ctx, model.EventError, model.ErrorPayload{Message: synthesisFailedMessage})
				text = fallbackReply(tasks)
				status = types.TurnStatusError
			}
			reply = text
			uc.logSink.Record(ctx, "synthesis", "ok", err == nil, "chars", len(reply))
		}
	}

	if reply != "" {
		stream.send(ctx, model.EventDelta, model.DeltaPayload{Text: reply})
	}
	stream.send(ctx, model.EventPlannerStatus, model.PlannerStatusPayload{State: types.PlannerStateCompleted, Plan: tasks})

	// TERMINAL
	uc.persist(bgCtx, conv.ID, status, tasks, reply)
	persisted = true
	uc.logSink.Record(ctx, "turn_end", "status", status, "tasks", len(tasks))

	uc.dispatch(bgCtx, "memory_extraction", func(ctx context.Context) error {
		_, err := uc.extraction.Extract(ctx, in.UserID, conv.ID)
		return err
	})
	if isNew {
		uc.dispatch(bgCtx, "title_synthesis", func(ctx context.Context) error {
			_, err := uc.titles.Synthesize(ctx, conv.ID, message)
			return err
		})
	}

	return status
}

// abortTasks marks tasks interrupted by a panic as failed so the persisted
// snapshot shows where the turn stopped
func abortTasks(tasks []*model.Task, cause any) {
	for _, t := range tasks {
		if t.Status == types.TaskStatusInProgress {
			t.Finish(model.TaskFailed{Err: goerr.New("task aborted", goerr.V("panic", fmt.Sprint(cause)))})
		}
	}
}

func userFacingError(err error) string {
	switch {
	case errors.Is(err, ErrConversationNotFound):
		return ErrConversationNotFound.Error()
	case errors.Is(err, ErrAccessDenied):
		return ErrAccessDenied.Error()
	default:
		return "internal error"
	}
}

func (uc *TurnUseCase) resolveConversation(ctx context.Context, in TurnInput) (*model.Conversation, bool, error) {
	if in.ConversationID == nil {
		conv, err := uc.repo.Conversation().Create(ctx, &model.Conversation{
			UserID: in.UserID,
			Title:  model.DeriveTitle(in.Message),
		})
		if err != nil {
			return nil, false, goerr.Wrap(err, "failed to create conversation", goerr.V(model.UserIDKey, in.UserID))
		}
		return conv, true, nil
	}

	conv, err := uc.repo.Conversation().Get(ctx, *in.ConversationID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, false, goerr.Wrap(ErrConversationNotFound, "unknown conversation", goerr.V(model.ConversationIDKey, *in.ConversationID))
		}
		return nil, false, goerr.Wrap(err, "failed to get conversation", goerr.V(model.ConversationIDKey, *in.ConversationID))
	}
	if conv.UserID != in.UserID {
		return nil, false, goerr.Wrap(ErrAccessDenied, "conversation owner mismatch",
			goerr.V(model.ConversationIDKey, conv.ID),
			goerr.V(model.UserIDKey, in.UserID))
	}
	return conv, false, nil
}

// recordUserMessage persists the message, updates the thread tracker and
// returns the prior history, oldest first
func (uc *TurnUseCase) recordUserMessage(ctx context.Context, conv *model.Conversation, message string, isNew bool) []*model.Message {
	logger := logging.From(ctx)

	var history []*model.Message
	if !isNew {
		msgs, err := uc.repo.Message().List(ctx, conv.ID)
		if err != nil {
			logger.Error("failed to load history", "error", err.Error())
		} else {
			history = msgs
		}
	}

	if _, err := uc.repo.Message().Append(ctx, &model.Message{
		ConversationID: conv.ID,
		Role:           types.RoleUser,
		Content:        message,
	}); err != nil {
		errutil.Handle(ctx, err, "failed to persist user message")
	}

	if !isNew {
		uc.threads.Ensure(conv.ID, history)
	}
	uc.threads.Observe(conv.ID, types.RoleUser, message)

	return history
}

func (uc *TurnUseCase) executeTask(ctx context.Context, stream *turnStream, task *model.Task, guide agentPromptData) {
	task.Start()
	uc.logSink.Record(ctx, "task_start", "task_index", task.Index, "task", task.Name)
	stream.send(ctx, model.EventTaskProgress, model.TaskProgressPayload{
		TaskID:      task.Index,
		Status:      task.Status,
		Description: task.Content,
	})

	outcome := uc.runTask(ctx, stream, task, guide)
	task.Finish(outcome)

	attrs := []any{"task_index", task.Index, "task", task.Name, "status", task.Status}
	if f, ok := outcome.(model.TaskFailed); ok {
		attrs = append(attrs, "error", f.Error())
	}
	uc.logSink.Record(ctx, "task_end", attrs...)

	stream.send(ctx, model.EventTaskProgress, model.TaskProgressPayload{
		TaskID:      task.Index,
		Status:      task.Status,
		Description: task.Content,
		Result:      clip(task.Output()),
	})
}

func (uc *TurnUseCase) runTask(ctx context.Context, stream *turnStream, task *model.Task, guide agentPromptData) model.TaskOutcome {
	guide.Task = task.Content
	systemPrompt, err := renderPrompt(taskPrompt, guide)
	if err != nil {
		return model.TaskFailed{Err: err}
	}

	ctx = tool.WithProgress(ctx, progressForwarder(stream, task))
	res, err := uc.runner.Run(ctx, &model.AgentRequest{
		Name:           "task",
		SystemPrompt:   systemPrompt,
		Input:          task.Content,
		UseRemoteTools: true,
		OnEvent:        eventForwarder(ctx, stream, task),
	})
	if err != nil {
		return model.TaskFailed{Err: goerr.Wrap(err, "task agent failed", goerr.V(model.TaskIndexKey, task.Index))}
	}

	output := strings.TrimSpace(res.Text)
	if output == "" {
		output = "(no output)"
	}
	return model.TaskCompleted{Output: output, ToolEvents: res.ToolEvents}
}

func (uc *TurnUseCase) runPrimary(ctx context.Context, stream *turnStream, userID string, conversationID int64, guide agentPromptData) (string, error) {
	systemPrompt, err := renderPrompt(primaryPrompt, guide)
	if err != nil {
		return "", err
	}

	// the degenerate single run is reported as task 0
	primary := &model.Task{Index: 0, Status: types.TaskStatusInProgress}
	ctx = tool.WithProgress(ctx, progressForwarder(stream, primary))

	res, err := uc.runner.Run(ctx, &model.AgentRequest{
		Name:           "primary",
		SystemPrompt:   systemPrompt,
		Input:          guide.Request,
		Tools:          core.NewMemoryTools(uc.memory, userID, conversationID),
		UseRemoteTools: true,
		OnEvent:        eventForwarder(ctx, stream, primary),
	})
	if err != nil {
		return "", goerr.Wrap(err, "primary agent failed")
	}
	return strings.TrimSpace(res.Text), nil
}

func (uc *TurnUseCase) synthesize(ctx context.Context, message string, tasks []*model.Task, guide agentPromptData) (string, error) {
	systemPrompt, err := renderPrompt(synthesisPrompt, guide)
	if err != nil {
		return "", err
	}

	var input strings.Builder
	fmt.Fprintf(&input, "User request:\n%s\n\nStep results:\n", message)
	for _, t := range tasks {
		fmt.Fprintf(&input, "%d. %s [%s]\n%s\n\n", t.Index+1, t.Content, t.Status, t.Output())
	}

	res, err := uc.runner.Run(ctx, &model.AgentRequest{
		Name:         "synthesis",
		SystemPrompt: systemPrompt,
		Input:        input.String(),
	})
	if err != nil {
		return "", goerr.Wrap(err, "synthesis agent failed")
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", goerr.New("synthesis returned no text")
	}
	return text, nil
}

func fallbackReply(tasks []*model.Task) string {
	var b strings.Builder
	b.WriteString(synthesisFailedMessage)
	for _, t := range tasks {
		fmt.Fprintf(&b, "\n- %s: %s", t.Content, t.Output())
	}
	return b.String()
}

func (uc *TurnUseCase) persist(ctx context.Context, conversationID int64, status types.TurnStatus, tasks []*model.Task, reply string) {
	logger := logging.From(ctx)

	if _, err := uc.repo.AgentRun().Create(ctx, &model.AgentRun{
		ConversationID: conversationID,
		Status:         status,
		Tasks:          tasks,
	}); err != nil {
		logger.Error("failed to persist agent run", "error", err.Error())
	}

	if reply == "" {
		return
	}
	if _, err := uc.repo.Message().Append(ctx, &model.Message{
		ConversationID: conversationID,
		Role:           types.RoleAssistant,
		Content:        reply,
	}); err != nil {
		logger.Error("failed to persist assistant message", "error", err.Error())
	}

	uc.threads.Observe(conversationID, types.RoleAssistant, reply)
	if AsksConfirmation(reply) {
		uc.threads.MarkPending(conversationID, reply)
	}
}

func eventForwarder(ctx context.Context, stream *turnStream, task *model.Task) func(model.AgentEvent) {
	return func(ev model.AgentEvent) {
		payload := model.TaskProgressPayload{
			TaskID:      task.Index,
			Status:      task.Status,
			Description: task.Content,
			ToolName:    ev.ToolName,
			Action:      string(ev.Type),
		}
		switch {
		case ev.Error != "":
			payload.Result = clip("error: " + ev.Error)
		case ev.Type == model.AgentEventToolResult:
			payload.Result = summarizeResult(ev.Result)
		}
		stream.send(ctx, model.EventTaskProgress, payload)
	}
}

func progressForwarder(stream *turnStream, task *model.Task) tool.ProgressFunc {
	return func(ctx context.Context, message string) {
		stream.send(ctx, model.EventTaskProgress, model.TaskProgressPayload{
			TaskID:      task.Index,
			Status:      task.Status,
			Description: task.Content,
			Action:      "progress",
			Result:      clip(message),
		})
	}
}

func summarizeResult(result map[string]any) string {
	if len(result) == 0 {
		return ""
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	return clip(string(raw))
}

func clip(s string) string {
	runes := []rune(s)
	if len(runes) <= maxResultRunes {
		return s
	}
	return string(runes[:maxResultRunes]) + "…"
}
