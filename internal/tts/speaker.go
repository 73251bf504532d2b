// Package tts speaks broadcast text through a synthesizer command and Pulse.
package tts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrReleased is returned once Release has been called.
	ErrReleased = errors.New("speaker released")
	// ErrEmptyText rejects blank utterances.
	ErrEmptyText = errors.New("nothing to speak")
)

// Clip is synthesized mono s16 audio.
type Clip struct {
	SampleRate int
	Samples    []int16
}

// Voice carries prosody multipliers; 1.0 is the synthesizer default.
type Voice struct {
	Rate  float64
	Pitch float64
}

// Engine turns text into audio.
type Engine interface {
	Synthesize(ctx context.Context, text string, voice Voice) (Clip, error)
}

// Player renders a clip, honoring pause and gain from ctl. It returns when
// the clip finishes or ctx ends.
type Player interface {
	Play(ctx context.Context, clip Clip, ctl *Control) error
}

// Listener receives utterance progress keyed by utterance ID. Callbacks
// arrive on the speaker's worker goroutine.
type Listener interface {
	OnStart(id string)
	OnDone(id string)
	OnError(id string, err error)
}

// Speaker plays one utterance at a time; a new Speak flushes the previous
// one without completion callbacks.
type Speaker struct {
	engine Engine
	player Player
	logger *slog.Logger
	newID  func() string

	control *Control

	mu       sync.Mutex
	listener Listener
	current  *utterance
	voice    Voice
	released bool
	wg       sync.WaitGroup
}

type utterance struct {
	id     string
	cancel context.CancelFunc
}

// NewSpeaker builds a speaker at full volume and default prosody.
func NewSpeaker(engine Engine, player Player, logger *slog.Logger) *Speaker {
	return &Speaker{
		engine:  engine,
		player:  player,
		logger:  logger,
		newID:   uuid.NewString,
		control: newControl(),
		voice:   Voice{Rate: 1, Pitch: 1},
	}
}

// SetListener installs the single progress consumer; nil clears it.
func (s *Speaker) SetListener(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Speak queues text at volume (0..1) and reports the utterance ID and
// whether it was accepted.
func (s *Speaker) Speak(text string, volume float64) (string, bool) {
	id, err := s.Submit(text, volume)
	if err != nil {
		s.logDebug("speak rejected", "error", err.Error())
		return "", false
	}
	return id, true
}

// Submit is Speak with the rejection reason.
func (s *Speaker) Submit(text string, volume float64) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return "", ErrReleased
	}
	prev := s.current
	ctx, cancel := context.WithCancel(context.Background())
	u := &utterance{id: s.newID(), cancel: cancel}
	s.current = u
	voice := s.voice
	s.control.setGain(volume)
	s.control.setPaused(false)
	s.wg.Add(1)
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	go s.speak(ctx, u, text, voice)
	return u.id, nil
}

func (s *Speaker) speak(ctx context.Context, u *utterance, text string, voice Voice) {
	defer s.wg.Done()
	defer u.cancel()

	clip, err := s.engine.Synthesize(ctx, text, voice)
	if err == nil && ctx.Err() == nil {
		s.notify(u, false, func(l Listener) { l.OnStart(u.id) })
		err = s.player.Play(ctx, clip, s.control)
	}
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		s.logDebug("utterance failed", "id", u.id, "error", err.Error())
		s.notify(u, true, func(l Listener) { l.OnError(u.id, err) })
		return
	}
	s.notify(u, true, func(l Listener) { l.OnDone(u.id) })
}

// notify calls fn if u is still the current utterance. terminal retires u.
func (s *Speaker) notify(u *utterance, terminal bool, fn func(Listener)) {
	s.mu.Lock()
	if s.current != u {
		s.mu.Unlock()
		return
	}
	if terminal {
		s.current = nil
	}
	l := s.listener
	s.mu.Unlock()

	if l != nil {
		fn(l)
	}
}

// Stop halts the current utterance. It is safe to call when idle and never
// produces callbacks.
func (s *Speaker) Stop() {
	s.mu.Lock()
	u := s.current
	s.current = nil
	s.control.setPaused(false)
	s.mu.Unlock()

	if u != nil {
		u.cancel()
	}
}

// Speaking reports whether an utterance is in flight.
func (s *Speaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Pause holds playback in place; it reports false when nothing is playing.
func (s *Speaker) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false
	}
	s.control.setPaused(true)
	return true
}

// Resume continues a paused utterance from where it stopped.
func (s *Speaker) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || !s.control.Paused() {
		return false
	}
	s.control.setPaused(false)
	return true
}

// Paused reports whether playback is held.
func (s *Speaker) Paused() bool {
	return s.control.Paused()
}

// SetVolume sets playback gain from a 0..100 level, including the
// utterance in flight.
func (s *Speaker) SetVolume(level int) {
	s.control.setGain(float64(clampLevel(level)) / 100)
}

// SetRate maps a 0..100 level onto a 0.5x..2x speech rate for later utterances.
func (s *Speaker) SetRate(level int) {
	s.mu.Lock()
	s.voice.Rate = LevelMultiplier(level)
	s.mu.Unlock()
}

// SetPitch maps a 0..100 level onto a 0.5x..2x pitch for later utterances.
func (s *Speaker) SetPitch(level int) {
	s.mu.Lock()
	s.voice.Pitch = LevelMultiplier(level)
	s.mu.Unlock()
}

// Voice returns the prosody the next utterance will use.
func (s *Speaker) Voice() Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// Gain returns the current playback gain.
func (s *Speaker) Gain() float64 {
	return s.control.Gain()
}

// Release stops playback, drops the listener, and waits for workers. Later
// Speak calls are rejected.
func (s *Speaker) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	u := s.current
	s.current = nil
	s.listener = nil
	s.mu.Unlock()

	if u != nil {
		u.cancel()
	}
	s.wg.Wait()
}

// LevelMultiplier maps 0..100 linearly onto 0.5..2.0.
func LevelMultiplier(level int) float64 {
	return 0.5 + float64(clampLevel(level))/100*1.5
}

func clampLevel(level int) int {
	return min(max(level, 0), 100)
}

func (s *Speaker) logDebug(message string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(message, args...)
}
