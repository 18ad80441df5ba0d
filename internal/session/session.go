package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Tanmay0215/legal-ai/internal/models"
	"github.com/google/uuid"
)

// Answerer produces an answer to a question given the conversation so far. Implementations
// must catch every failure at their boundary and return it inside the AnswerResult; the
// session never receives an unstructured error from an adapter. The session is written
// against this interface only, so swapping backends requires no change here.
type Answerer interface {
	Answer(ctx context.Context, question string, history []models.Message) models.AnswerResult
}

// DefaultTimeout bounds a single answer request. Adapters surface an expired deadline as a
// network failure.
const DefaultTimeout = 60 * time.Second

const errLoggerKey = "err"

const greetingNoDocument = "Hi! Upload a legal document and I can answer questions about it."

var errorSentences = map[models.ErrorKind]string{
	models.ErrorKindNoDocument:     "Please upload a document first so I can answer questions about it.",
	models.ErrorKindNotConfigured:  "The assistant is not configured with an API key yet.",
	models.ErrorKindContentBlocked: "The response was blocked by the provider's safety filters.",
	models.ErrorKindNetwork:        "Could not reach the assistant backend. Please try again.",
	models.ErrorKindBackend:        "The assistant backend returned an error. Please try again.",
}

// ErrorSentence maps an error kind to the single sentence shown to the user, both inside the
// resolved placeholder message and in the session-level error banner.
func ErrorSentence(kind models.ErrorKind) string {
	if s, ok := errorSentences[kind]; ok {
		return s
	}
	return errorSentences[models.ErrorKindBackend]
}

// State is a read-only copy of the session for presentation.
type State struct {
	Messages []models.Message
	Input    string
	Pending  bool
	Err      string
	Document models.DocumentContext
}

// Session owns the live conversation state: the ordered transcript, the draft input, the
// in-flight flag, the last error, and the document gate. All mutation happens under one
// mutex; asynchronous backend calls settle through a goroutine that re-checks the session
// epoch before writing, so a response arriving after a re-seed or teardown is discarded.
type Session struct {
	answerer Answerer
	timeout  time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	messages []models.Message
	input    string
	pending  bool
	err      string
	document models.DocumentContext
	epoch    uint64
	closed   bool
	onUpdate func()
}

// NewSession creates a session bound to the given answering backend. The transcript starts
// seeded with the no-document greeting.
func NewSession(answerer Answerer, logger *slog.Logger) *Session {
	s := &Session{
		answerer: answerer,
		timeout:  DefaultTimeout,
		logger:   logger.With(slog.String("module", "session")),
	}
	s.SetDocumentContext(models.DocumentContext{})
	return s
}

// SetTimeout overrides the per-request deadline.
func (s *Session) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// SetOnUpdate registers a hook invoked after every state change, outside the session lock.
// The presentation layer uses it to push transcript updates to connected clients.
func (s *Session) SetOnUpdate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// SetDocumentContext replaces the document gate and re-seeds the transcript with a single
// greeting message. The greeting acknowledges the file when a document is present and asks
// for an upload otherwise. Any request still in flight settles into a discarded epoch.
func (s *Session) SetDocumentContext(doc models.DocumentContext) {
	s.mu.Lock()
	s.document = doc
	s.messages = []models.Message{{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Content:   greeting(doc),
		Timestamp: time.Now(),
	}}
	s.pending = false
	s.err = ""
	s.epoch++
	s.mu.Unlock()

	s.notify()
}

func greeting(doc models.DocumentContext) string {
	if !doc.Present {
		return greetingNoDocument
	}
	if doc.DocumentType != "" {
		return fmt.Sprintf("I've loaded %s (%s, %.0f%% confidence). Ask me anything about it.",
			doc.FileName, doc.DocumentType, doc.Confidence*100)
	}
	return fmt.Sprintf("I've loaded %s. Ask me anything about it.", doc.FileName)
}

// SetInput updates the draft text backing the input box.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

// CanSubmit reports whether a submission would be accepted right now: non-blank draft text
// and no request in flight. It is derived from state alone, so it cannot drift.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimSpace(s.input) != "" && !s.pending
}

// SetError writes the session-level error banner without touching the transcript or the
// in-flight flag. The startup liveness probe reports an unreachable backend through here.
func (s *Session) SetError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()

	s.notify()
}

// Snapshot returns a copy of the session state for read-only presentation.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]models.Message, len(s.messages))
	copy(msgs, s.messages)
	return State{
		Messages: msgs,
		Input:    s.input,
		Pending:  s.pending,
		Err:      s.err,
		Document: s.document,
	}
}

// Submit accepts a user turn and starts the asynchronous answer request. It reports false
// without any state change when the text is blank or a request is already in flight;
// overlapping submissions are rejected, not queued. On accept it appends the user message,
// clears the draft and the error banner, appends the pending assistant placeholder, and
// settles the placeholder exactly once when the backend call returns.
func (s *Session) Submit(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.mu.Lock()
	if s.pending || s.closed {
		s.mu.Unlock()
		return false
	}

	// Adapters replay this history and append the question as the final turn themselves,
	// so the snapshot is taken before the new user message.
	history := make([]models.Message, len(s.messages))
	copy(history, s.messages)

	now := time.Now()
	s.messages = append(s.messages,
		models.Message{
			ID:        uuid.New().String(),
			Role:      models.RoleUser,
			Content:   text,
			Timestamp: now,
		},
		models.Message{
			ID:        uuid.New().String(),
			Role:      models.RoleAssistant,
			Pending:   true,
			Timestamp: now,
		})
	placeholderIdx := len(s.messages) - 1
	s.input = ""
	s.err = ""
	s.pending = true
	epoch := s.epoch
	timeout := s.timeout
	s.mu.Unlock()

	s.notify()

	go s.settle(epoch, placeholderIdx, text, history, timeout)
	return true
}

func (s *Session) settle(epoch uint64, idx int, question string, history []models.Message, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res := s.answerer.Answer(ctx, question, history)

	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		// The session was torn down or re-seeded while the request was in flight; the
		// response has nowhere valid to land.
		s.mu.Unlock()
		s.logger.Debug("Discarding stale answer", slog.Uint64("epoch", epoch))
		return
	}

	msg := s.messages[idx]
	msg.Pending = false
	if res.OK {
		msg.Content = res.Answer
	} else {
		sentence := ErrorSentence(res.ErrorKind)
		msg.Content = sentence
		s.err = sentence
		s.logger.Error("Answer request failed",
			slog.String("kind", string(res.ErrorKind)),
			slog.String(errLoggerKey, res.Message))
	}
	s.messages[idx] = msg
	s.pending = false
	s.mu.Unlock()

	s.notify()
}

// Close marks the session as torn down. Any response still in flight is discarded on
// arrival, and further submissions are rejected.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.epoch++
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onUpdate
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}
