// Package agent runs the function calling conversation between a user, the
// completion model and the registered backend functions.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/m2tx/kimap_agent/internal/model"
	"github.com/m2tx/kimap_agent/internal/repository"
)

const (
	MaxQuestionLength    = 1000
	DefaultMaxIterations = 8
	DefaultCallTimeout   = 30 * time.Second
)

// Fixed answers for completion protocol anomalies.
const (
	FallbackUnavailable     = "Sorry, I'm unable to answer right now."
	FallbackUnknownFunction = "Sorry, that function is not available."
	FallbackNoAnswer        = "Sorry, I couldn't find an answer."
)

type Agent struct {
	completer         Completer
	registry          *Registry
	systemInstruction string
	sessionRepository repository.SessionRepository
	logger            *slog.Logger
	maxIterations     int
	callTimeout       time.Duration
	newSessionID      func() string
}

type Option func(*Agent)

func WithSessionRepository(repo repository.SessionRepository) Option {
	return func(a *Agent) { a.sessionRepository = repo }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// WithMaxIterations caps the completion calls of a single question.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithCallTimeout bounds each completion and function call.
func WithCallTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.callTimeout = d
		}
	}
}

func New(completer Completer, registry *Registry, systemInstruction string, opts ...Option) *Agent {
	a := &Agent{
		completer:         completer,
		registry:          registry,
		systemInstruction: systemInstruction,
		logger:            slog.Default(),
		maxIterations:     DefaultMaxIterations,
		callTimeout:       DefaultCallTimeout,
		newSessionID:      func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "agent")
	return a
}

// ValidateQuestion rejects empty questions and questions longer than
// MaxQuestionLength characters.
func ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return &ValidationError{Field: "question", Message: "must not be empty", Err: ErrEmptyQuestion}
	}

	if n := utf8.RuneCountInString(question); n > MaxQuestionLength {
		return &ValidationError{
			Field:   "question",
			Message: fmt.Sprintf("must be at most %d characters, got %d", MaxQuestionLength, n),
			Err:     ErrQuestionTooLong,
		}
	}

	return nil
}

type state int

const (
	stateAwaitModel state = iota
	stateExecuteTool
	stateDone
	stateFailed
)

// Chat answers question given the prior history. The input history is not
// modified; newHistory holds it followed by the user turn and every
// model/function pair exchanged. The final answer is not appended.
//
// Function failures are fed back to the model as {"error": msg}. Protocol
// anomalies end the conversation with a fallback answer. Only completion
// service failures are returned as errors.
func (a *Agent) Chat(ctx context.Context, question string, history []model.Content) (answer string, newHistory []model.Content, err error) {
	if err := ValidateQuestion(question); err != nil {
		return "", nil, err
	}

	newHistory = make([]model.Content, len(history), len(history)+1+2*a.maxIterations)
	copy(newHistory, history)
	newHistory = append(newHistory, model.NewTextContent(model.RoleUser, question))

	var (
		st         = stateAwaitModel
		call       *model.FunctionCall
		iterations int
	)

	for st != stateDone && st != stateFailed {
		switch st {
		case stateAwaitModel:
			if iterations >= a.maxIterations {
				a.logger.Error("iteration limit reached", "iterations", iterations)
				answer, st = FallbackUnavailable, stateDone
				continue
			}
			iterations++

			var completion *Completion
			completion, err = a.complete(ctx, newHistory)
			if err != nil {
				st = stateFailed
				continue
			}

			st, call, answer = a.interpret(completion)
			if call != nil {
				newHistory = append(newHistory, model.Content{
					Role:  model.RoleModel,
					Parts: []model.Part{{FunctionCall: call}},
				})
			}

		case stateExecuteTool:
			fd, ok := a.registry.Lookup(call.Name)
			if !ok {
				a.logger.Error("model requested unknown function", "function", call.Name)
				answer, st = FallbackUnknownFunction, stateDone
				continue
			}

			newHistory = append(newHistory, model.Content{
				Role: model.RoleFunction,
				Parts: []model.Part{{FunctionResponse: &model.FunctionResponse{
					ID:       call.ID,
					Name:     call.Name,
					Response: a.execute(ctx, fd, call.Args),
				}}},
			})
			call, st = nil, stateAwaitModel
		}
	}

	if st == stateFailed {
		return "", nil, err
	}

	return answer, newHistory, nil
}

func (a *Agent) complete(ctx context.Context, history []model.Content) (*Completion, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	completion, err := a.completer.Complete(callCtx, CompletionRequest{
		History:           history,
		Functions:         a.registry.Declarations(),
		SystemInstruction: a.systemInstruction,
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			a.logger.Error("completion timed out", "timeout", a.callTimeout)
			return nil, fmt.Errorf("%w after %s", ErrTimeout, a.callTimeout)
		}
		a.logger.Error("completion failed", "error", err)
		return nil, fmt.Errorf("agent: complete: %w", err)
	}

	return completion, nil
}

// interpret maps the first part of a completion to the next state. A
// function call is returned with non-nil args.
func (a *Agent) interpret(completion *Completion) (state, *model.FunctionCall, string) {
	if completion == nil || completion.Content == nil {
		a.logger.Error("completion returned no candidate")
		return stateDone, nil, FallbackUnavailable
	}

	if len(completion.Content.Parts) == 0 {
		a.logger.Warn("completion returned an empty turn")
		return stateDone, nil, FallbackNoAnswer
	}

	first := completion.Content.Parts[0]
	switch {
	case first.FunctionCall != nil:
		args := first.FunctionCall.Args
		if args == nil {
			args = map[string]any{}
		}
		return stateExecuteTool, &model.FunctionCall{
			ID:   first.FunctionCall.ID,
			Name: first.FunctionCall.Name,
			Args: args,
		}, ""
	case first.Text != "":
		return stateDone, nil, first.Text
	default:
		a.logger.Warn("completion returned neither text nor function call")
		return stateDone, nil, FallbackNoAnswer
	}
}

// execute runs a function and builds its response payload: {"result": v} on
// success, {"error": msg} on failure.
func (a *Agent) execute(ctx context.Context, fd *FunctionDeclaration, args map[string]any) map[string]any {
	logger := a.logger.With("function", fd.Name)

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	start := time.Now()
	value, err := fd.FunctionCall(callCtx, args)
	if err != nil {
		logger.Warn("function failed", "error", err, "duration", time.Since(start))
		return map[string]any{"error": err.Error()}
	}

	result, err := normalize(value)
	if err != nil {
		logger.Warn("function result is not JSON encodable", "error", err)
		return map[string]any{"error": err.Error()}
	}

	logger.Debug("function executed", "duration", time.Since(start))

	return map[string]any{"result": result}
}

// normalize converts v to plain JSON values (maps, slices, float64, string,
// bool, nil) so the payload survives every session store unchanged.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// Reply is the answer to one question within a session.
type Reply struct {
	Answer    string `json:"answer"`
	SessionID string `json:"sessionId"`
}

// Send answers question within the session sessionID, creating a new session
// when sessionID is empty. The question, any function exchange and the
// answer are persisted.
func (a *Agent) Send(ctx context.Context, sessionID string, question string) (Reply, error) {
	if err := ValidateQuestion(question); err != nil {
		return Reply{}, err
	}

	if sessionID == "" {
		sessionID = a.newSessionID()
	}

	history, err := a.GetSession(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}

	logger := a.logger.With("session_id", sessionID)
	logger.Info("question received", "length", utf8.RuneCountInString(question), "history", len(history))

	answer, newHistory, err := a.Chat(ctx, question, history)
	if err != nil {
		return Reply{}, err
	}

	newHistory = append(newHistory, model.NewTextContent(model.RoleModel, answer))

	if a.sessionRepository != nil {
		if saveErr := a.sessionRepository.Save(ctx, sessionID, newHistory); saveErr != nil {
			logger.Warn("failed to save session", "error", saveErr)
		}
	}

	logger.Info("question answered", "turns", len(newHistory)-len(history))

	return Reply{Answer: answer, SessionID: sessionID}, nil
}

// GetSession returns the stored history of a session, empty when unknown.
func (a *Agent) GetSession(ctx context.Context, sessionID string) ([]model.Content, error) {
	if a.sessionRepository == nil {
		return []model.Content{}, nil
	}

	stored, err := a.sessionRepository.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("agent: load session %q: %w", sessionID, err)
	}

	if stored == nil {
		return []model.Content{}, nil
	}

	return stored, nil
}

func (a *Agent) ClearSession(ctx context.Context, sessionID string) error {
	if a.sessionRepository == nil {
		return nil
	}

	if err := a.sessionRepository.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("agent: delete session %q: %w", sessionID, err)
	}

	return nil
}

// Conversations lists every stored session, most recently updated first.
func (a *Agent) Conversations(ctx context.Context) ([]model.Conversation, error) {
	if a.sessionRepository == nil {
		return []model.Conversation{}, nil
	}

	sessions, err := a.sessionRepository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent: list sessions: %w", err)
	}

	conversations := make([]model.Conversation, 0, len(sessions))
	for _, s := range sessions {
		conversations = append(conversations, s.Summarize())
	}

	return conversations, nil
}
