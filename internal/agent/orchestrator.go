// Package agent coordinates the hybrid response pipeline: both models
// generate candidates for every message, and a rule-based merger picks
// the reply that reaches the user.
package agent

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmallory/solace/internal/config"
	"github.com/jmallory/solace/internal/domain"
	"github.com/jmallory/solace/internal/llm"
	"github.com/jmallory/solace/internal/logging"
	"github.com/jmallory/solace/internal/metrics"
	"github.com/jmallory/solace/internal/mood"
	"github.com/jmallory/solace/internal/store"
)

// ErrEmptyMessage is returned when the user message is blank.
var ErrEmptyMessage = errors.New("message must not be empty")

// ErrSessionRequired is returned when no session id is supplied and
// auto-creation is disabled.
var ErrSessionRequired = errors.New("session id required")

// fallbackReply is used when neither generator produced usable text.
const fallbackReply = "I'm sorry, I'm having trouble finding the right words just now. Could you tell me a little more about what's on your mind?"

const sessionShards = 64

// Result is a completed turn: the session it belongs to, the reply, and
// the session's turn count including this turn.
type Result struct {
	SessionID string                 `json:"sessionId"`
	Reply     domain.ResponsePackage `json:"reply"`
	TurnCount int                    `json:"turnCount"`
}

// Orchestrator runs the per-message pipeline against a session store and
// the two generators. Turns within one session are serialized; different
// sessions proceed concurrently.
type Orchestrator struct {
	store      store.SessionStore
	local      llm.LocalGenerator
	remote     llm.RemoteGenerator
	merger     *Merger
	classifier *mood.Classifier
	window     int
	autoCreate bool
	log        *logging.Logger

	locks [sessionShards]sync.Mutex
}

// New builds an orchestrator from its collaborators and hybrid tuning.
func New(s store.SessionStore, local llm.LocalGenerator, remote llm.RemoteGenerator,
	hybrid config.HybridConfig, autoCreate bool, log *logging.Logger) *Orchestrator {
	window := hybrid.WindowTurns
	if window < 1 {
		window = 1
	}
	return &Orchestrator{
		store:      s,
		local:      local,
		remote:     remote,
		merger:     NewMerger(hybrid),
		classifier: mood.New(),
		window:     window,
		autoCreate: autoCreate,
		log:        log.Sub("agent"),
	}
}

// SyncActiveSessions aligns the active-sessions gauge with the store.
// Durable backends can reopen with existing sessions; without this the
// gauge starts at zero regardless.
func (o *Orchestrator) SyncActiveSessions(ctx context.Context) error {
	n, err := o.store.Count(ctx)
	if err != nil {
		return err
	}
	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// StartSession creates a new empty session.
func (o *Orchestrator) StartSession(ctx context.Context) (*domain.Session, error) {
	sess, err := o.store.Create(ctx)
	if err != nil {
		return nil, err
	}
	metrics.ActiveSessions.Inc()
	o.log.Info().Str("session", sess.ID).Msg("session started")
	return sess, nil
}

// GetSession returns a copy of the session.
func (o *Orchestrator) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return o.store.Get(ctx, id)
}

// ListTurns returns the session's full history in order.
func (o *Orchestrator) ListTurns(ctx context.Context, id string) ([]domain.Turn, error) {
	return o.store.ListTurns(ctx, id)
}

// EndSession removes the session and its history. Ended sessions are
// indistinguishable from ones that never existed.
func (o *Orchestrator) EndSession(ctx context.Context, id string) error {
	if err := o.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ActiveSessions.Dec()
	o.log.Info().Str("session", id).Msg("session ended")
	return nil
}

// resolveSession maps the caller-supplied id to a live session id. An
// absent or unknown id starts a fresh session when auto-creation is
// enabled; otherwise the caller gets ErrSessionRequired or
// ErrSessionNotFound respectively.
func (o *Orchestrator) resolveSession(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		if !o.autoCreate {
			return "", ErrSessionRequired
		}
		sess, err := o.StartSession(ctx)
		if err != nil {
			return "", err
		}
		return sess.ID, nil
	}
	if _, err := o.store.Get(ctx, sessionID); err != nil {
		if !errors.Is(err, store.ErrSessionNotFound) || !o.autoCreate {
			return "", err
		}
		sess, err := o.StartSession(ctx)
		if err != nil {
			return "", err
		}
		o.log.Info().Str("stale", sessionID).Str("session", sess.ID).Msg("unknown session id, starting fresh session")
		return sess.ID, nil
	}
	return sessionID, nil
}

// ProcessMessage runs one full turn: resolve the session, generate both
// candidates concurrently against the history window, merge, classify the
// user's emotional state, and append the turn. Result.SessionID carries the
// id actually used, which differs from the input when auto-creation kicked
// in. On cancellation nothing is appended; the session is exactly as it was.
func (o *Orchestrator) ProcessMessage(ctx context.Context, sessionID, message string) (*Result, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	sessionID, err := o.resolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	lock := &o.locks[shardFor(sessionID)]
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	window := sess.Window(o.window)

	var (
		customText string
		confidence float64
		remoteText string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		customText, confidence = o.local.Generate(gctx, window, message)
		metrics.GenerationDuration.WithLabelValues("local").Observe(time.Since(start).Seconds())
		metrics.LocalConfidence.Observe(confidence)
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		remoteText = o.remote.Generate(gctx, SystemPrompt, window, message)
		metrics.GenerationDuration.WithLabelValues("remote").Observe(time.Since(start).Seconds())
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reply, err := o.merger.Merge(customText, confidence, remoteText)
	if err != nil {
		return nil, err
	}
	if reply.Text == "" {
		reply.Text = fallbackReply
	}

	state := o.classifier.Classify(message)
	reply.EmotionalState = state

	turn := domain.Turn{
		UserText:       message,
		AssistantText:  reply.Text,
		Timestamp:      time.Now().UTC(),
		EmotionalState: state,
	}
	if err := o.store.AppendTurn(ctx, sessionID, turn); err != nil {
		return nil, err
	}

	metrics.TurnsTotal.Inc()
	metrics.MergeDecisions.WithLabelValues(string(reply.Metadata.PrimarySource)).Inc()
	metrics.EmotionalStates.WithLabelValues(string(state)).Inc()

	o.log.Debug().
		Str("session", sessionID).
		Str("source", string(reply.Metadata.PrimarySource)).
		Str("state", string(state)).
		Float64("confidence", confidence).
		Msg("turn completed")

	return &Result{
		SessionID: sessionID,
		Reply:     reply,
		TurnCount: len(sess.Turns) + 1,
	}, nil
}

func shardFor(id string) int {
	h := fnv.New32a()
	h.Write([]byte(id))
	return int(h.Sum32() % sessionShards)
}
