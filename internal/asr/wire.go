// Package asr streams microphone audio to a gRPC speech recognizer.
//
// The wire contract is expressed with protobuf well-known types so no
// generated stubs are required:
//
//	rpc StreamingRecognize(stream google.protobuf.Any) returns (stream google.protobuf.Struct)
//
// The first request wraps a Struct carrying the recognition config; every
// later request wraps a BytesValue of 16 kHz mono s16le PCM. Each response
// Struct has transcript (string), is_final (bool), and stability (number).
//
// No off-the-shelf recognizer speaks this service. It is served by a local
// adapter process that calls RegisterRecognizerServer and forwards audio to
// the actual engine (NVIDIA Riva, whisper.cpp server, Vosk), registering
// the standard grpc.health.v1 service under ServiceName so readiness checks
// pass.
package asr

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rbright/hark/internal/audio"
)

const (
	ServiceName              = "hark.asr.v1.Recognizer"
	streamingRecognizeMethod = "/" + ServiceName + "/StreamingRecognize"
)

var streamingRecognizeDesc = grpc.StreamDesc{
	StreamName:    "StreamingRecognize",
	ServerStreams: true,
	ClientStreams: true,
}

// SpeechPhrase is one vocabulary boost phrase in request-ready form.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}

// RecognizerServer is the server side of the streaming contract.
type RecognizerServer interface {
	StreamingRecognize(grpc.ServerStream) error
}

// RegisterRecognizerServer attaches srv to s under ServiceName.
func RegisterRecognizerServer(s grpc.ServiceRegistrar, srv RecognizerServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*RecognizerServer)(nil),
		Streams: []grpc.StreamDesc{{
			StreamName: streamingRecognizeDesc.StreamName,
			Handler: func(impl any, stream grpc.ServerStream) error {
				return impl.(RecognizerServer).StreamingRecognize(stream)
			},
			ServerStreams: true,
			ClientStreams: true,
		}},
		Metadata: "hark/asr/v1/recognizer.proto",
	}, srv)
}

func openRecognizeStream(ctx context.Context, conn grpc.ClientConnInterface) (grpc.ClientStream, error) {
	return conn.NewStream(ctx, &streamingRecognizeDesc, streamingRecognizeMethod)
}

// configRequest builds the leading config message of a stream.
func configRequest(cfg StreamConfig) (*anypb.Any, error) {
	contexts := make([]any, 0, len(cfg.SpeechPhrases))
	for _, phrase := range cfg.SpeechPhrases {
		text := strings.TrimSpace(phrase.Phrase)
		if text == "" {
			continue
		}
		contexts = append(contexts, map[string]any{
			"phrases": []any{text},
			"boost":   float64(phrase.Boost),
		})
	}

	payload, err := structpb.NewStruct(map[string]any{
		"encoding":            "LINEAR_PCM",
		"sample_rate_hertz":   audio.SampleRate,
		"audio_channel_count": 1,
		"language_code":       cfg.LanguageCode,
		"model":               strings.TrimSpace(cfg.Model),
		"interim_results":     true,
		"speech_contexts":     contexts,
	})
	if err != nil {
		return nil, fmt.Errorf("build recognition config: %w", err)
	}
	return anypb.New(payload)
}

func audioRequest(chunk []byte) (*anypb.Any, error) {
	return anypb.New(wrapperspb.Bytes(chunk))
}

// hypothesis is one decoded recognition response.
type hypothesis struct {
	Transcript string
	Final      bool
	Stability  float64
}

func decodeResponse(resp *structpb.Struct) hypothesis {
	fields := resp.GetFields()
	return hypothesis{
		Transcript: fields["transcript"].GetStringValue(),
		Final:      fields["is_final"].GetBoolValue(),
		Stability:  fields["stability"].GetNumberValue(),
	}
}
