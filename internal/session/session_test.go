package session_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Tanmay0215/legal-ai/internal/models"
	"github.com/Tanmay0215/legal-ai/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnswerer struct {
	mu      sync.Mutex
	calls   int
	history []models.Message
	result  models.AnswerResult

	// block, when non-nil, holds the answer until closed so tests can observe the
	// in-flight state.
	block chan struct{}
}

func (s *stubAnswerer) Answer(_ context.Context, _ string, history []models.Message) models.AnswerResult {
	s.mu.Lock()
	s.calls++
	s.history = history
	s.mu.Unlock()

	if s.block != nil {
		<-s.block
	}
	return s.result
}

func (s *stubAnswerer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubAnswerer) lastHistory() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history
}

func newTestSession(t *testing.T, a session.Answerer) (*session.Session, chan struct{}) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.NewSession(a, logger)

	updates := make(chan struct{}, 32)
	sess.SetOnUpdate(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	return sess, updates
}

func waitSettled(t *testing.T, sess *session.Session, updates chan struct{}) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for sess.Snapshot().Pending {
		select {
		case <-updates:
		case <-deadline:
			t.Fatal("session did not settle in time")
		}
	}
}

func TestSubmitBlankIsNoOp(t *testing.T) {
	stub := &stubAnswerer{result: models.Answered("unused")}
	sess, _ := newTestSession(t, stub)

	require.False(t, sess.Submit("   "))
	require.False(t, sess.Submit(""))

	st := sess.Snapshot()
	assert.Len(t, st.Messages, 1)
	assert.False(t, st.Pending)
	assert.False(t, sess.CanSubmit())
	assert.Equal(t, 0, stub.callCount())
}

func TestCanSubmit(t *testing.T) {
	stub := &stubAnswerer{block: make(chan struct{}), result: models.Answered("done")}
	sess, updates := newTestSession(t, stub)

	assert.False(t, sess.CanSubmit())

	sess.SetInput("  \t ")
	assert.False(t, sess.CanSubmit())

	sess.SetInput("What is the termination clause?")
	assert.True(t, sess.CanSubmit())

	require.True(t, sess.Submit("What is the termination clause?"))

	// The draft was cleared and a request is in flight.
	sess.SetInput("another question")
	assert.False(t, sess.CanSubmit())

	close(stub.block)
	waitSettled(t, sess, updates)
	assert.True(t, sess.CanSubmit())
}

func TestSingleInFlight(t *testing.T) {
	stub := &stubAnswerer{block: make(chan struct{}), result: models.Answered("first answer")}
	sess, updates := newTestSession(t, stub)

	require.True(t, sess.Submit("first"))
	for range 5 {
		assert.False(t, sess.Submit("rapid duplicate"))
	}

	close(stub.block)
	waitSettled(t, sess, updates)

	st := sess.Snapshot()
	require.Len(t, st.Messages, 3)
	assert.Equal(t, "first", st.Messages[1].Content)
	assert.Equal(t, "first answer", st.Messages[2].Content)
	assert.Equal(t, 1, stub.callCount())

	// Settled sessions accept the next turn.
	assert.True(t, sess.Submit("second"))
}

func TestPlaceholderResolved(t *testing.T) {
	stub := &stubAnswerer{result: models.Answered("30 days")}
	sess, updates := newTestSession(t, stub)
	sess.SetDocumentContext(models.DocumentContext{Present: true, FileName: "contract.pdf"})

	require.True(t, sess.Submit("What is the termination clause?"))

	// The placeholder is visible while the request is in flight.
	st := sess.Snapshot()
	require.Len(t, st.Messages, 3)
	assert.Equal(t, models.RoleAssistant, st.Messages[2].Role)

	waitSettled(t, sess, updates)

	st = sess.Snapshot()
	require.Len(t, st.Messages, 3)
	last := st.Messages[2]
	assert.Equal(t, models.RoleAssistant, last.Role)
	assert.Equal(t, "30 days", last.Content)
	assert.False(t, last.Pending)
	assert.False(t, st.Pending)
	assert.Empty(t, st.Err)
}

func TestErrorSurfacedInPlaceholderAndBanner(t *testing.T) {
	stub := &stubAnswerer{result: models.Failed(models.ErrorKindNoDocument, "No documents uploaded yet")}
	sess, updates := newTestSession(t, stub)

	require.True(t, sess.Submit("What is the termination clause?"))
	waitSettled(t, sess, updates)

	want := session.ErrorSentence(models.ErrorKindNoDocument)
	assert.Contains(t, want, "upload a document")

	st := sess.Snapshot()
	require.Len(t, st.Messages, 3)
	assert.Equal(t, want, st.Messages[2].Content)
	assert.False(t, st.Messages[2].Pending)
	assert.Equal(t, want, st.Err)

	// The session stays usable for a retry.
	stub.result = models.Answered("recovered")
	require.True(t, sess.Submit("try again"))
	waitSettled(t, sess, updates)

	st = sess.Snapshot()
	assert.Empty(t, st.Err)
	assert.Equal(t, "recovered", st.Messages[len(st.Messages)-1].Content)
}

func TestErrorSentences(t *testing.T) {
	kinds := []models.ErrorKind{
		models.ErrorKindNoDocument,
		models.ErrorKindNotConfigured,
		models.ErrorKindContentBlocked,
		models.ErrorKindNetwork,
		models.ErrorKindBackend,
	}
	seen := make(map[string]bool)
	for _, kind := range kinds {
		sentence := session.ErrorSentence(kind)
		assert.NotEmpty(t, sentence, "kind %s", kind)
		seen[sentence] = true
	}
	assert.Len(t, seen, len(kinds), "each kind maps to a distinct sentence")

	// Unknown kinds fall back to the generic backend sentence.
	assert.Equal(t, session.ErrorSentence(models.ErrorKindBackend), session.ErrorSentence("bogus"))
}

func TestTranscriptOrder(t *testing.T) {
	stub := &stubAnswerer{}
	sess, updates := newTestSession(t, stub)

	const n = 3
	for i := range n {
		stub.result = models.Answered(fmt.Sprintf("answer %d", i))
		require.True(t, sess.Submit(fmt.Sprintf("question %d", i)))
		waitSettled(t, sess, updates)
	}

	st := sess.Snapshot()
	require.Len(t, st.Messages, 1+2*n)
	assert.Equal(t, models.RoleAssistant, st.Messages[0].Role)
	for i := range n {
		user := st.Messages[1+2*i]
		answer := st.Messages[2+2*i]
		assert.Equal(t, models.RoleUser, user.Role)
		assert.Equal(t, fmt.Sprintf("question %d", i), user.Content)
		assert.Equal(t, models.RoleAssistant, answer.Role)
		assert.Equal(t, fmt.Sprintf("answer %d", i), answer.Content)
		assert.False(t, user.Pending)
		assert.False(t, answer.Pending)
	}
}

func TestHistoryExcludesInFlightTurn(t *testing.T) {
	stub := &stubAnswerer{result: models.Answered("a1")}
	sess, updates := newTestSession(t, stub)

	require.True(t, sess.Submit("q1"))
	waitSettled(t, sess, updates)

	// The first call only sees the seed greeting; the question travels separately.
	history := stub.lastHistory()
	require.Len(t, history, 1)
	assert.Equal(t, models.RoleAssistant, history[0].Role)

	require.True(t, sess.Submit("q2"))
	waitSettled(t, sess, updates)

	history = stub.lastHistory()
	require.Len(t, history, 3)
	assert.Equal(t, "q1", history[1].Content)
	assert.Equal(t, "a1", history[2].Content)
}

func TestReseedReplacesTranscript(t *testing.T) {
	stub := &stubAnswerer{result: models.Answered("unused")}
	sess, _ := newTestSession(t, stub)

	sess.SetDocumentContext(models.DocumentContext{})
	sess.SetDocumentContext(models.DocumentContext{
		Present:      true,
		FileName:     "contract.pdf",
		DocumentType: "lease agreement",
		Confidence:   0.92,
	})

	st := sess.Snapshot()
	require.Len(t, st.Messages, 1)
	seed := st.Messages[0]
	assert.Equal(t, models.RoleAssistant, seed.Role)
	assert.Contains(t, seed.Content, "contract.pdf")
	assert.Contains(t, seed.Content, "lease agreement")
	assert.True(t, st.Document.Present)
}

func TestGreetingBranch(t *testing.T) {
	stub := &stubAnswerer{}
	sess, _ := newTestSession(t, stub)

	st := sess.Snapshot()
	require.Len(t, st.Messages, 1)
	assert.Contains(t, st.Messages[0].Content, "Upload a legal document")

	sess.SetDocumentContext(models.DocumentContext{Present: true, FileName: "nda.pdf"})
	st = sess.Snapshot()
	require.Len(t, st.Messages, 1)
	assert.Contains(t, st.Messages[0].Content, "nda.pdf")
}

func TestStaleResponseDiscardedAfterReseed(t *testing.T) {
	stub := &stubAnswerer{block: make(chan struct{}), result: models.Answered("late answer")}
	sess, _ := newTestSession(t, stub)

	require.True(t, sess.Submit("question"))

	// A new document arrives while the request is in flight; the transcript is re-seeded
	// and the eventual response has nowhere valid to land.
	sess.SetDocumentContext(models.DocumentContext{Present: true, FileName: "contract.pdf"})
	close(stub.block)

	time.Sleep(100 * time.Millisecond)

	st := sess.Snapshot()
	require.Len(t, st.Messages, 1)
	assert.Contains(t, st.Messages[0].Content, "contract.pdf")
	assert.False(t, st.Pending)
	assert.Empty(t, st.Err)
}

func TestStaleResponseDiscardedAfterClose(t *testing.T) {
	stub := &stubAnswerer{block: make(chan struct{}), result: models.Answered("late answer")}
	sess, _ := newTestSession(t, stub)

	require.True(t, sess.Submit("question"))
	sess.Close()
	close(stub.block)

	time.Sleep(100 * time.Millisecond)

	st := sess.Snapshot()
	require.Len(t, st.Messages, 3)
	assert.True(t, st.Messages[2].Pending, "placeholder is left as-is after teardown")
	assert.Empty(t, st.Messages[2].Content)

	assert.False(t, sess.Submit("after close"))
}

func TestSetErrorIsBannerOnly(t *testing.T) {
	stub := &stubAnswerer{}
	sess, _ := newTestSession(t, stub)

	sess.SetError("The document service is unreachable.")

	st := sess.Snapshot()
	assert.Equal(t, "The document service is unreachable.", st.Err)
	assert.Len(t, st.Messages, 1)
	assert.False(t, st.Pending)
}
