package asr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/speech"
	"github.com/rbright/hark/internal/transcript"
)

const collectTimeout = 10 * time.Second

// recognizeStream is the slice of *Stream the engine drives.
type recognizeStream interface {
	SendAudio(chunk []byte) error
	CloseAndCollect(ctx context.Context) ([]string, time.Duration, error)
	Cancel() error
}

// Engine implements speech.Engine over Pulse capture and a streaming gRPC
// recognizer. One session runs at a time.
type Engine struct {
	cfg    config.Config
	logger *slog.Logger

	selectDevice func(ctx context.Context, input, fallback string) (audio.Selection, error)
	startCapture func(ctx context.Context, device audio.Device) (audio.Stream, error)
	dial         func(ctx context.Context, cfg StreamConfig) (recognizeStream, error)

	mu        sync.Mutex
	active    *run
	destroyed bool
	wg        sync.WaitGroup
}

type run struct {
	cancel   context.CancelFunc
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (r *run) stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

func (r *run) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

var _ speech.Engine = (*Engine)(nil)

// NewEngine constructs a recognizer engine from runtime config.
func NewEngine(cfg config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:          cfg,
		logger:       logger,
		selectDevice: audio.SelectDevice,
		startCapture: audio.StartStream,
		dial: func(ctx context.Context, sc StreamConfig) (recognizeStream, error) {
			stream, err := DialStream(ctx, sc)
			if err != nil {
				return nil, err
			}
			return stream, nil
		},
	}
}

// Start launches one capture session. It returns immediately; progress is
// reported through sink.
func (e *Engine) Start(ctx context.Context, locale string, sink speech.Sink) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.destroyed {
		return speech.ErrDestroyed
	}
	if e.active != nil && !e.active.finished() {
		return &speech.Error{Code: speech.ErrorRecognizerBusy, Err: errors.New("previous session still finishing")}
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel, stopCh: make(chan struct{}), done: make(chan struct{})}
	e.active = r

	e.wg.Add(1)
	go e.run(runCtx, locale, sink, r)
	return nil
}

// Stop ends capture; the session then delivers its result or error.
func (e *Engine) Stop() {
	e.mu.Lock()
	r := e.active
	e.mu.Unlock()
	if r != nil {
		r.stop()
	}
}

// Cancel aborts the active session without further callbacks and frees the
// engine for a new Start right away.
func (e *Engine) Cancel() {
	e.mu.Lock()
	r := e.active
	e.active = nil
	e.mu.Unlock()
	if r != nil {
		r.cancel()
	}
}

// Destroy cancels any session and waits for it to wind down.
func (e *Engine) Destroy() {
	e.mu.Lock()
	e.destroyed = true
	r := e.active
	e.active = nil
	e.mu.Unlock()
	if r != nil {
		r.cancel()
	}
	e.wg.Wait()
}

func (e *Engine) run(ctx context.Context, locale string, sink speech.Sink, r *run) {
	defer e.wg.Done()
	defer close(r.done)
	defer r.cancel()

	fail := func(code speech.ErrorCode, err error) {
		if ctx.Err() != nil {
			return
		}
		e.logWarn("speech session failed", "code", code.String(), "error", err.Error())
		sink.Error(code)
	}

	selection, err := e.selectDevice(ctx, e.cfg.Audio.Input, e.cfg.Audio.Fallback)
	if err != nil {
		fail(speech.ErrorAudio, fmt.Errorf("select audio device: %w", err))
		return
	}
	if selection.Warning != "" {
		e.logWarn(selection.Warning)
	}

	streamCfg, closeDebug, err := e.streamConfig(locale)
	if err != nil {
		fail(speech.ErrorClient, err)
		return
	}
	defer closeDebug()

	stream, err := e.dial(ctx, streamCfg)
	if err != nil {
		fail(speech.CodeOf(err), err)
		return
	}

	capture, err := e.startCapture(ctx, selection.Device)
	if err != nil {
		_ = stream.Cancel()
		fail(speech.ErrorAudio, fmt.Errorf("start audio capture: %w", err))
		return
	}
	e.logDebug("speech session listening", "device", describeDevice(selection.Device))
	sink.Ready()

	sendErrCh := make(chan error, 1)
	go forwardAudio(capture, stream, sendErrCh)

	var maxListen <-chan time.Time
	if ms := e.cfg.ASR.MaxListenMS; ms > 0 {
		timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
		defer timer.Stop()
		maxListen = timer.C
	}

	var (
		sendErr      error
		sendReported bool
	)
	select {
	case <-r.stopCh:
	case <-maxListen:
		e.logDebug("speech session reached max listen duration")
	case sendErr = <-sendErrCh:
		sendReported = true
	case <-ctx.Done():
		_ = capture.Stop()
		<-sendErrCh
		_ = stream.Cancel()
		e.writeDebugAudio(capture.RawPCM())
		return
	}

	_ = capture.Stop()
	if !sendReported {
		sendErr = <-sendErrCh
	}
	e.writeDebugAudio(capture.RawPCM())
	if ctx.Err() != nil {
		_ = stream.Cancel()
		return
	}
	sink.EndOfSpeech()

	if sendErr != nil {
		_ = stream.Cancel()
		fail(speech.ErrorServer, fmt.Errorf("send audio stream: %w", sendErr))
		return
	}

	collectCtx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()
	segments, latency, err := stream.CloseAndCollect(collectCtx)
	if err != nil {
		fail(speech.CodeOf(err), fmt.Errorf("collect final transcript: %w", err))
		return
	}

	text := transcript.Assemble(segments)
	e.logDebug("speech session transcribed",
		"bytes_captured", capture.BytesCaptured(),
		"grpc_latency_ms", latency.Milliseconds(),
		"transcript_chars", len(text),
	)
	if text == "" {
		fail(speech.ErrorNoMatch, errors.New("empty transcript"))
		return
	}
	if ctx.Err() != nil {
		return
	}
	sink.Result(text)
}

// streamConfig resolves per-session stream settings, opening a grpc debug
// sink when enabled. The returned closer is always non-nil.
func (e *Engine) streamConfig(locale string) (StreamConfig, func(), error) {
	phrases, _, err := config.BuildSpeechPhrases(e.cfg)
	if err != nil {
		return StreamConfig{}, func() {}, fmt.Errorf("build speech contexts: %w", err)
	}

	language := strings.TrimSpace(locale)
	if language == "" {
		language = e.cfg.ASR.LanguageCode
	}

	sc := StreamConfig{
		Endpoint:      e.cfg.ASR.GRPC,
		LanguageCode:  language,
		Model:         e.cfg.ASR.Model,
		SpeechPhrases: make([]SpeechPhrase, 0, len(phrases)),
		DialTimeout:   time.Duration(e.cfg.ASR.DialTimeoutMS) * time.Millisecond,
	}
	for _, phrase := range phrases {
		sc.SpeechPhrases = append(sc.SpeechPhrases, SpeechPhrase{Phrase: phrase.Phrase, Boost: phrase.Boost})
	}

	if !e.cfg.Debug.EnableGRPCDump {
		return sc, func() {}, nil
	}
	file, err := createDebugFile("grpc", "json")
	if err != nil {
		e.logWarn("unable to create grpc debug dump", "error", err.Error())
		return sc, func() {}, nil
	}
	sc.DebugResponseSinkJSON = file
	return sc, func() { _ = file.Close() }, nil
}

// forwardAudio pumps capture chunks to the stream and reports exactly once.
func forwardAudio(capture audio.Stream, stream recognizeStream, errCh chan<- error) {
	for chunk := range capture.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		if err := stream.SendAudio(chunk); err != nil {
			_ = capture.Stop()
			errCh <- err
			return
		}
	}
	errCh <- nil
}

func (e *Engine) writeDebugAudio(rawPCM []byte) {
	if !e.cfg.Debug.EnableAudioDump || len(rawPCM) == 0 {
		return
	}

	file, err := createDebugFile("audio", "wav")
	if err != nil {
		e.logWarn("unable to create debug audio dump", "error", err.Error())
		return
	}
	defer file.Close()

	if err := writePCM16WAV(file, rawPCM, audio.SampleRate, 1); err != nil {
		e.logWarn("unable to write debug audio dump", "error", err.Error())
	}
}

func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

func (e *Engine) logWarn(message string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Warn(message, args...)
}

func (e *Engine) logDebug(message string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Debug(message, args...)
}
