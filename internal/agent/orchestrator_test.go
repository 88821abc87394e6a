package agent

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmallory/solace/internal/config"
	"github.com/jmallory/solace/internal/domain"
	"github.com/jmallory/solace/internal/llm"
	"github.com/jmallory/solace/internal/logging"
	"github.com/jmallory/solace/internal/metrics"
	"github.com/jmallory/solace/internal/store"
)

func testHybrid() config.HybridConfig {
	return config.HybridConfig{
		CustomWeight:        0.4,
		RemoteWeight:        0.6,
		ConfidenceThreshold: 0.7,
		SimilarityCutoff:    0.85,
		WindowTurns:         5,
	}
}

func newTestOrchestrator(local *llm.MockLocal, remote *llm.MockRemote) (*Orchestrator, store.SessionStore) {
	s := store.NewMemoryStore()
	log := logging.New(io.Discard, "silent")
	return New(s, local, remote, testHybrid(), true, log), s
}

func TestProcessMessage_RemoteWins(t *testing.T) {
	local := &llm.MockLocal{GenerateFunc: func(ctx context.Context, h []domain.Turn, msg string) (string, float64) {
		return "mumble mumble something.", 0.2
	}}
	remote := &llm.MockRemote{GenerateFunc: func(ctx context.Context, sys string, h []domain.Turn, msg string) string {
		return "What's been weighing on you the most?"
	}}
	o, _ := newTestOrchestrator(local, remote)

	res, err := o.ProcessMessage(context.Background(), "", "I feel off today")
	require.NoError(t, err)

	assert.Equal(t, "What's been weighing on you the most?", res.Reply.Text)
	assert.Equal(t, domain.SourceRemote, res.Reply.Metadata.PrimarySource)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, 1, res.TurnCount)
}

func TestProcessMessage_CustomFallbackWhenRemoteDown(t *testing.T) {
	local := &llm.MockLocal{GenerateFunc: func(ctx context.Context, h []domain.Turn, msg string) (string, float64) {
		return "That sounds difficult. What usually helps you unwind?", 0.0
	}}
	remote := &llm.MockRemote{} // always ""
	o, _ := newTestOrchestrator(local, remote)

	res, err := o.ProcessMessage(context.Background(), "", "rough day")
	require.NoError(t, err)

	assert.Equal(t, "That sounds difficult. What usually helps you unwind?", res.Reply.Text)
	assert.Equal(t, domain.SourceCustom, res.Reply.Metadata.PrimarySource)
}

func TestProcessMessage_BothFailGetFallback(t *testing.T) {
	o, _ := newTestOrchestrator(&llm.MockLocal{}, &llm.MockRemote{})

	res, err := o.ProcessMessage(context.Background(), "", "hello?")
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, res.Reply.Text)
}

func TestProcessMessage_EmptyMessage(t *testing.T) {
	o, _ := newTestOrchestrator(&llm.MockLocal{}, &llm.MockRemote{})

	_, err := o.ProcessMessage(context.Background(), "", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

// A stale id, say from a client that outlived a server restart, gets a
// fresh session rather than an error when auto-creation is on.
func TestProcessMessage_UnknownSessionStartsFresh(t *testing.T) {
	remote := &llm.MockRemote{GenerateFunc: func(ctx context.Context, sys string, h []domain.Turn, msg string) string {
		return "Welcome back. What's on your mind?"
	}}
	o, s := newTestOrchestrator(&llm.MockLocal{}, remote)

	res, err := o.ProcessMessage(context.Background(), "stale-or-unknown-id", "hello")
	require.NoError(t, err)

	assert.NotEmpty(t, res.SessionID)
	assert.NotEqual(t, "stale-or-unknown-id", res.SessionID)
	assert.Equal(t, 1, res.TurnCount)

	sess, err := s.Get(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Turns, 1)
	_, err = s.Get(context.Background(), "stale-or-unknown-id")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestProcessMessage_AutoCreateDisabled(t *testing.T) {
	s := store.NewMemoryStore()
	log := logging.New(io.Discard, "silent")
	o := New(s, &llm.MockLocal{}, &llm.MockRemote{}, testHybrid(), false, log)

	_, err := o.ProcessMessage(context.Background(), "", "hi there")
	assert.ErrorIs(t, err, ErrSessionRequired)

	_, err = o.ProcessMessage(context.Background(), "no-such-id", "hi there")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestProcessMessage_WindowGrowsWithHistory(t *testing.T) {
	var mu sync.Mutex
	var windows [][]domain.Turn

	local := &llm.MockLocal{GenerateFunc: func(ctx context.Context, h []domain.Turn, msg string) (string, float64) {
		mu.Lock()
		windows = append(windows, h)
		mu.Unlock()
		return "", 0.0
	}}
	remote := &llm.MockRemote{GenerateFunc: func(ctx context.Context, sys string, h []domain.Turn, msg string) string {
		return "Go on, I'm listening."
	}}
	o, _ := newTestOrchestrator(local, remote)

	res, err := o.ProcessMessage(context.Background(), "", "first message")
	require.NoError(t, err)

	_, err = o.ProcessMessage(context.Background(), res.SessionID, "second message")
	require.NoError(t, err)

	require.Len(t, windows, 2)
	assert.Empty(t, windows[0])
	require.Len(t, windows[1], 1)
	assert.Equal(t, "first message", windows[1][0].UserText)
}

func TestProcessMessage_WindowBounded(t *testing.T) {
	var mu sync.Mutex
	var lastWindow []domain.Turn

	local := &llm.MockLocal{GenerateFunc: func(ctx context.Context, h []domain.Turn, msg string) (string, float64) {
		mu.Lock()
		lastWindow = h
		mu.Unlock()
		return "", 0.0
	}}
	remote := &llm.MockRemote{GenerateFunc: func(ctx context.Context, sys string, h []domain.Turn, msg string) string {
		return "Mm, tell me more."
	}}

	s := store.NewMemoryStore()
	hybrid := testHybrid()
	hybrid.WindowTurns = 2
	o := New(s, local, remote, hybrid, true, logging.New(io.Discard, "silent"))

	res, err := o.ProcessMessage(context.Background(), "", "msg 1")
	require.NoError(t, err)
	for _, msg := range []string{"msg 2", "msg 3", "msg 4"} {
		_, err = o.ProcessMessage(context.Background(), res.SessionID, msg)
		require.NoError(t, err)
	}

	require.Len(t, lastWindow, 2)
	assert.Equal(t, "msg 2", lastWindow[0].UserText)
	assert.Equal(t, "msg 3", lastWindow[1].UserText)
}

func TestProcessMessage_ClassifiesAndPersists(t *testing.T) {
	remote := &llm.MockRemote{GenerateFunc: func(ctx context.Context, sys string, h []domain.Turn, msg string) string {
		return "That sounds like a lot of pressure."
	}}
	o, s := newTestOrchestrator(&llm.MockLocal{}, remote)

	res, err := o.ProcessMessage(context.Background(), "", "I can't sleep, I'm so stressed about work")
	require.NoError(t, err)
	assert.Equal(t, domain.StateStressed, res.Reply.EmotionalState)

	sess, err := s.Get(context.Background(), res.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.Turns, 1)
	assert.Equal(t, domain.StateStressed, sess.EmotionalState)
	assert.Equal(t, "That sounds like a lot of pressure.", sess.Turns[0].AssistantText)
}

func TestProcessMessage_CanceledContextAppendsNothing(t *testing.T) {
	o, s := newTestOrchestrator(&llm.MockLocal{}, &llm.MockRemote{GenerateFunc: func(ctx context.Context, sys string, h []domain.Turn, msg string) string {
		return "too late anyway"
	}})

	sess, err := o.StartSession(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = o.ProcessMessage(ctx, sess.ID, "hello")
	require.Error(t, err)

	got, err := s.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Turns)
}

func TestSessionLifecycle(t *testing.T) {
	o, _ := newTestOrchestrator(&llm.MockLocal{}, &llm.MockRemote{})
	ctx := context.Background()

	sess, err := o.StartSession(ctx)
	require.NoError(t, err)

	got, err := o.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	require.NoError(t, o.EndSession(ctx, sess.ID))
	_, err = o.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
	assert.ErrorIs(t, o.EndSession(ctx, sess.ID), store.ErrSessionNotFound)
}

// Reopening a durable store with existing sessions must not leave the
// active-sessions gauge at zero.
func TestSyncActiveSessions(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx)
		require.NoError(t, err)
	}

	o := New(s, &llm.MockLocal{}, &llm.MockRemote{}, testHybrid(), true, logging.New(io.Discard, "silent"))
	require.NoError(t, o.SyncActiveSessions(ctx))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.ActiveSessions))
}

func TestProcessMessage_ConcurrentSessionsIndependent(t *testing.T) {
	remote := &llm.MockRemote{GenerateFunc: func(ctx context.Context, sys string, h []domain.Turn, msg string) string {
		return "I'm here with you."
	}}
	o, s := newTestOrchestrator(&llm.MockLocal{}, remote)
	ctx := context.Background()

	a, err := o.StartSession(ctx)
	require.NoError(t, err)
	b, err := o.StartSession(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, id := range []string{a.ID, b.ID} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := o.ProcessMessage(ctx, id, "another message")
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	for _, id := range []string{a.ID, b.ID} {
		sess, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Len(t, sess.Turns, 10)
	}
}
