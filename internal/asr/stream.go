package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rbright/hark/internal/speech"
	"github.com/rbright/hark/internal/transcript"
)

// StreamConfig controls stream initialization and recognition behavior.
type StreamConfig struct {
	Endpoint              string
	LanguageCode          string
	Model                 string
	SpeechPhrases         []SpeechPhrase
	DialTimeout           time.Duration
	DebugResponseSinkJSON io.Writer
}

// Stream wraps one active StreamingRecognize RPC lifecycle.
type Stream struct {
	conn   *grpc.ClientConn
	stream grpc.ClientStream

	recvDone chan struct{}

	mu            sync.Mutex
	builder       transcript.Builder
	recvErr       error
	closedSend    bool
	debugSinkJSON io.Writer
}

// DialStream establishes a stream, sends config, and starts the receive loop.
// Failures carry a speech.ErrorCode via *speech.Error.
func DialStream(ctx context.Context, cfg StreamConfig) (*Stream, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, &speech.Error{Code: speech.ErrorClient, Err: errors.New("asr endpoint is empty")}
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	if strings.TrimSpace(cfg.LanguageCode) == "" {
		cfg.LanguageCode = "en-US"
	}

	conn, err := grpc.NewClient(
		endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, &speech.Error{Code: speech.ErrorNetwork, Err: fmt.Errorf("dial asr grpc %q: %w", endpoint, err)}
	}

	readyCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		code := speech.ErrorNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			code = speech.ErrorNetworkTimeout
		}
		return nil, &speech.Error{Code: code, Err: fmt.Errorf("wait for asr grpc readiness: %w", err)}
	}

	var stream grpc.ClientStream
	err = runWithTimeout(ctx, cfg.DialTimeout, func() error {
		var openErr error
		stream, openErr = openRecognizeStream(ctx, conn)
		return openErr
	})
	if err != nil {
		_ = conn.Close()
		return nil, &speech.Error{Code: initErrorCode(err), Err: fmt.Errorf("open streaming recognizer: %w", err)}
	}

	req, err := configRequest(cfg)
	if err != nil {
		_ = conn.Close()
		return nil, &speech.Error{Code: speech.ErrorClient, Err: err}
	}
	if err := runWithTimeout(ctx, cfg.DialTimeout, func() error { return stream.SendMsg(req) }); err != nil {
		_ = conn.Close()
		return nil, &speech.Error{Code: initErrorCode(err), Err: fmt.Errorf("send initial streaming config: %w", err)}
	}

	s := &Stream{
		conn:          conn,
		stream:        stream,
		recvDone:      make(chan struct{}),
		debugSinkJSON: cfg.DebugResponseSinkJSON,
	}
	go s.recvLoop()
	return s, nil
}

func initErrorCode(err error) speech.ErrorCode {
	var timeout errInitTimeout
	if errors.As(err, &timeout) || errors.Is(err, context.DeadlineExceeded) {
		return speech.ErrorNetworkTimeout
	}
	return speech.ErrorNetwork
}

// recvLoop continuously receives recognition responses until stream close/error.
func (s *Stream) recvLoop() {
	defer close(s.recvDone)

	for {
		resp := new(structpb.Struct)
		err := s.stream.RecvMsg(resp)
		if err == nil {
			s.recordResponse(resp)
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}

		s.mu.Lock()
		s.recvErr = err
		s.mu.Unlock()
		return
	}
}

func (s *Stream) recordResponse(resp *structpb.Struct) {
	if sink := s.debugSinkJSON; sink != nil {
		b, err := protojson.Marshal(resp)
		if err == nil {
			_, _ = sink.Write(append(b, '\n'))
		}
	}

	h := decodeResponse(resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.builder.Add(h.Transcript, h.Final)
}

// SendAudio sends one chunk of PCM audio over the active stream.
func (s *Stream) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.mu.Lock()
	closed := s.closedSend
	recvErr := s.recvErr
	s.mu.Unlock()

	if closed {
		return errors.New("stream already closed for sending")
	}
	if recvErr != nil {
		return fmt.Errorf("stream receive loop failed: %w", recvErr)
	}

	req, err := audioRequest(chunk)
	if err != nil {
		return err
	}
	return s.stream.SendMsg(req)
}

// CloseAndCollect half-closes the stream and returns merged transcript segments.
func (s *Stream) CloseAndCollect(ctx context.Context) ([]string, time.Duration, error) {
	closedAt := time.Now()

	s.mu.Lock()
	if !s.closedSend {
		s.closedSend = true
		_ = s.stream.CloseSend()
	}
	s.mu.Unlock()

	select {
	case <-s.recvDone:
	case <-ctx.Done():
		_ = s.conn.Close()
		return nil, 0, &speech.Error{Code: speech.ErrorNetworkTimeout, Err: ctx.Err()}
	}
	latency := time.Since(closedAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { _ = s.conn.Close() }()

	if s.recvErr != nil {
		return nil, latency, &speech.Error{Code: speech.ErrorServer, Err: s.recvErr}
	}
	return s.builder.Segments(), latency, nil
}

// Cancel aborts stream processing and closes the underlying grpc connection.
func (s *Stream) Cancel() error {
	s.mu.Lock()
	if !s.closedSend {
		s.closedSend = true
		_ = s.stream.CloseSend()
	}
	s.mu.Unlock()
	return s.conn.Close()
}

// waitForReady blocks until gRPC connection enters Ready or fails.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}
