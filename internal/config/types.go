// Package config resolves, parses, validates, and defaults hark configuration.
package config

// Config is the fully materialized runtime configuration used by hark.
type Config struct {
	ASR       ASRConfig
	Audio     AudioConfig
	TTS       TTSConfig
	Overlay   OverlayConfig
	Gesture   GestureConfig
	Commands  CommandsConfig
	Indicator IndicatorConfig
	History   HistoryConfig
	Vocab     VocabConfig
	Debug     DebugConfig
	Log       LogConfig
}

// ASRConfig controls the recognizer endpoint and request-level hints.
type ASRConfig struct {
	GRPC          string
	LanguageCode  string
	Model         string
	MaxListenMS   int
	DialTimeoutMS int
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// TTSConfig controls the synthesizer command and initial playback levels.
type TTSConfig struct {
	Command CommandConfig
	Voice   string
	Volume  int
	Rate    int
	Pitch   int
}

// OverlayConfig identifies the floating window and its pointer feed.
type OverlayConfig struct {
	WindowClass   string
	PointerSource string
}

// GestureConfig tunes tap/drag/long-press discrimination.
type GestureConfig struct {
	LongPressMS   int
	DragThreshold float64
}

// CommandsConfig overrides keyword groups; an empty group keeps the built-in list.
type CommandsConfig struct {
	Broadcast []string
	Stop      []string
	Volume    []string
	Speed     []string
	Pitch     []string
	Close     []string
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	ErrorTimeoutMS int
}

// HistoryConfig controls the persisted broadcast log.
type HistoryConfig struct {
	Enable     bool
	MaxEntries int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// VocabConfig controls enabled speech phrase sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named phrase group with a shared boost value.
type VocabSet struct {
	Name    string
	Boost   float64
	Phrases []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
	EnableGRPCDump  bool
}

// LogConfig controls the JSONL runtime log. HARK_LOG_LEVEL overrides Level.
type LogConfig struct {
	Level    string
	MaxBytes int64
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// SpeechPhrase is the normalized phrase payload sent to ASR adapters.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}
