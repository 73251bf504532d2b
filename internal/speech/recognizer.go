package speech

import (
	"context"
	"log/slog"
	"sync"
)

// Listener receives recognition callbacks on the dispatch queue.
type Listener interface {
	OnReady()
	OnEndOfSpeech()
	OnResult(text string)
	OnError(code ErrorCode)
}

// Sink is handed to an Engine for one session. Its methods may be called
// from any goroutine.
type Sink interface {
	Ready()
	EndOfSpeech()
	Result(text string)
	Error(code ErrorCode)
}

// Engine is the speech-to-text backend.
type Engine interface {
	// Start begins one capture session reporting into sink.
	Start(ctx context.Context, locale string, sink Sink) error
	// Stop ends capture and lets the engine deliver a final result or error.
	Stop()
	// Cancel ends capture and discards anything pending.
	Cancel()
	// Destroy releases engine resources.
	Destroy()
}

// Recognizer scopes engine callbacks to the session that produced them and
// marshals them through dispatch. Callbacks for a superseded session, or
// arriving after Destroy, are dropped.
type Recognizer struct {
	engine   Engine
	dispatch func(func()) bool
	logger   *slog.Logger

	mu            sync.Mutex
	listener      Listener
	session       uint64
	listening     bool
	stopRequested bool
	destroyed     bool
}

// NewRecognizer wraps engine. A nil dispatch runs callbacks inline on the
// engine's goroutine.
func NewRecognizer(engine Engine, dispatch func(func()) bool, logger *slog.Logger) *Recognizer {
	if dispatch == nil {
		dispatch = func(fn func()) bool {
			fn()
			return true
		}
	}
	return &Recognizer{engine: engine, dispatch: dispatch, logger: logger}
}

// SetListener installs the single callback consumer, replacing any previous one.
func (r *Recognizer) SetListener(l Listener) {
	r.mu.Lock()
	r.listener = l
	r.mu.Unlock()
}

// Listening reports whether a session is active.
func (r *Recognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

// Start begins a new session. An active session is cancelled first.
func (r *Recognizer) Start(ctx context.Context, locale string) error {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return ErrDestroyed
	}
	restart := r.listening
	r.session++
	id := r.session
	r.listening = true
	r.stopRequested = false
	r.mu.Unlock()

	if restart {
		r.engine.Cancel()
	}

	if err := r.engine.Start(ctx, locale, &sessionSink{r: r, id: id}); err != nil {
		r.mu.Lock()
		if r.session == id {
			r.listening = false
		}
		r.mu.Unlock()
		r.logDebug("speech engine start failed", "error", err.Error())
		return err
	}
	return nil
}

// Stop asks the engine to finish and deliver its result. It is a no-op when
// no session is active or a stop is already pending.
func (r *Recognizer) Stop() {
	r.mu.Lock()
	if !r.listening || r.stopRequested {
		r.mu.Unlock()
		return
	}
	r.stopRequested = true
	r.mu.Unlock()

	r.engine.Stop()
}

// Cancel aborts the active session; no further callbacks are delivered for it.
func (r *Recognizer) Cancel() {
	r.mu.Lock()
	if !r.listening {
		r.mu.Unlock()
		return
	}
	r.session++
	r.listening = false
	r.stopRequested = false
	r.mu.Unlock()

	r.engine.Cancel()
}

// Destroy tears the recognizer down. Later Start calls fail with ErrDestroyed.
func (r *Recognizer) Destroy() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	r.session++
	r.listening = false
	r.listener = nil
	r.mu.Unlock()

	r.engine.Destroy()
}

// deliver runs fn against the listener on the dispatch queue if session id is
// still current at that point.
func (r *Recognizer) deliver(id uint64, terminal bool, fn func(Listener)) {
	accepted := r.dispatch(func() {
		r.mu.Lock()
		if r.destroyed || r.session != id {
			r.mu.Unlock()
			return
		}
		if terminal {
			r.listening = false
			r.stopRequested = false
		}
		l := r.listener
		r.mu.Unlock()

		if l != nil {
			fn(l)
		}
	})
	if !accepted {
		r.logDebug("speech callback dropped; dispatcher stopped")
	}
}

func (r *Recognizer) logDebug(message string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Debug(message, args...)
}

type sessionSink struct {
	r  *Recognizer
	id uint64
}

func (s *sessionSink) Ready() {
	s.r.deliver(s.id, false, func(l Listener) { l.OnReady() })
}

func (s *sessionSink) EndOfSpeech() {
	s.r.deliver(s.id, false, func(l Listener) { l.OnEndOfSpeech() })
}

func (s *sessionSink) Result(text string) {
	s.r.deliver(s.id, true, func(l Listener) { l.OnResult(text) })
}

func (s *sessionSink) Error(code ErrorCode) {
	s.r.deliver(s.id, true, func(l Listener) { l.OnError(code) })
}
