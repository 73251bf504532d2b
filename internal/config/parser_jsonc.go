package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	ASR       *jsoncASR       `json:"asr"`
	Audio     *jsoncAudio     `json:"audio"`
	TTS       *jsoncTTS       `json:"tts"`
	Overlay   *jsoncOverlay   `json:"overlay"`
	Gesture   *jsoncGesture   `json:"gesture"`
	Commands  *jsoncCommands  `json:"commands"`
	Indicator *jsoncIndicator `json:"indicator"`
	History   *jsoncHistory   `json:"history"`
	Vocab     *jsoncVocab     `json:"vocab"`
	Debug     *jsoncDebug     `json:"debug"`
	Log       *jsoncLog       `json:"log"`
}

type jsoncLog struct {
	Level    *string `json:"level"`
	MaxBytes *int64  `json:"max_bytes"`
}

type jsoncASR struct {
	GRPC          *string `json:"grpc"`
	LanguageCode  *string `json:"language_code"`
	Model         *string `json:"model"`
	MaxListenMS   *int    `json:"max_listen_ms"`
	DialTimeoutMS *int    `json:"dial_timeout_ms"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncTTS struct {
	Command *string `json:"command"`
	Voice   *string `json:"voice"`
	Volume  *int    `json:"volume"`
	Rate    *int    `json:"rate"`
	Pitch   *int    `json:"pitch"`
}

type jsoncOverlay struct {
	WindowClass   *string `json:"window_class"`
	PointerSource *string `json:"pointer_source"`
}

type jsoncGesture struct {
	LongPressMS   *int     `json:"long_press_ms"`
	DragThreshold *float64 `json:"drag_threshold"`
}

type jsoncCommands struct {
	Broadcast *jsoncStringList `json:"broadcast"`
	Stop      *jsoncStringList `json:"stop"`
	Volume    *jsoncStringList `json:"volume"`
	Speed     *jsoncStringList `json:"speed"`
	Pitch     *jsoncStringList `json:"pitch"`
	Close     *jsoncStringList `json:"close"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncHistory struct {
	Enable     *bool `json:"enable"`
	MaxEntries *int  `json:"max_entries"`
}

type jsoncVocab struct {
	Global     *jsoncStringList         `json:"global"`
	MaxPhrases *int                     `json:"max_phrases"`
	Sets       map[string]jsoncVocabSet `json:"sets"`
}

type jsoncVocabSet struct {
	Boost   *float64 `json:"boost"`
	Phrases []string `json:"phrases"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
	GRPCDump  *bool `json:"grpc_dump"`
}

// jsoncStringList accepts either a string array or a comma-delimited string.
type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = trimNonEmpty(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = trimNonEmpty(strings.Split(single, ","))
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func trimNonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setList(dst *[]string, src *jsoncStringList) {
	if src != nil {
		*dst = append([]string(nil), (*src)...)
	}
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if p := payload.ASR; p != nil {
		setString(&cfg.ASR.GRPC, p.GRPC)
		setString(&cfg.ASR.LanguageCode, p.LanguageCode)
		setString(&cfg.ASR.Model, p.Model)
		setValue(&cfg.ASR.MaxListenMS, p.MaxListenMS)
		setValue(&cfg.ASR.DialTimeoutMS, p.DialTimeoutMS)
	}

	if p := payload.Audio; p != nil {
		setString(&cfg.Audio.Input, p.Input)
		setString(&cfg.Audio.Fallback, p.Fallback)
	}

	if p := payload.TTS; p != nil {
		if p.Command != nil {
			cmd, err := ParseCommand(*p.Command)
			if err != nil {
				return fmt.Errorf("invalid tts.command: %w", err)
			}
			cfg.TTS.Command = cmd
		}
		setString(&cfg.TTS.Voice, p.Voice)
		setValue(&cfg.TTS.Volume, p.Volume)
		setValue(&cfg.TTS.Rate, p.Rate)
		setValue(&cfg.TTS.Pitch, p.Pitch)
	}

	if p := payload.Overlay; p != nil {
		setString(&cfg.Overlay.WindowClass, p.WindowClass)
		setString(&cfg.Overlay.PointerSource, p.PointerSource)
	}

	if p := payload.Gesture; p != nil {
		setValue(&cfg.Gesture.LongPressMS, p.LongPressMS)
		setValue(&cfg.Gesture.DragThreshold, p.DragThreshold)
	}

	if p := payload.Commands; p != nil {
		setList(&cfg.Commands.Broadcast, p.Broadcast)
		setList(&cfg.Commands.Stop, p.Stop)
		setList(&cfg.Commands.Volume, p.Volume)
		setList(&cfg.Commands.Speed, p.Speed)
		setList(&cfg.Commands.Pitch, p.Pitch)
		setList(&cfg.Commands.Close, p.Close)
	}

	if p := payload.Indicator; p != nil {
		setValue(&cfg.Indicator.Enable, p.Enable)
		setString(&cfg.Indicator.Backend, p.Backend)
		setString(&cfg.Indicator.DesktopAppName, p.DesktopAppName)
		setValue(&cfg.Indicator.SoundEnable, p.SoundEnable)
		setValue(&cfg.Indicator.ErrorTimeoutMS, p.ErrorTimeoutMS)
	}

	if p := payload.History; p != nil {
		setValue(&cfg.History.Enable, p.Enable)
		setValue(&cfg.History.MaxEntries, p.MaxEntries)
	}

	if p := payload.Vocab; p != nil {
		setList(&cfg.Vocab.GlobalSets, p.Global)
		setValue(&cfg.Vocab.MaxPhrases, p.MaxPhrases)
		if p.Sets != nil {
			sets := make(map[string]VocabSet, len(cfg.Vocab.Sets)+len(p.Sets))
			for name, set := range cfg.Vocab.Sets {
				sets[name] = set
			}
			for name, set := range p.Sets {
				name = strings.TrimSpace(name)
				if name == "" {
					return fmt.Errorf("vocab.sets contains an empty set name")
				}
				entry := VocabSet{Name: name, Phrases: append([]string(nil), set.Phrases...)}
				setValue(&entry.Boost, set.Boost)
				sets[name] = entry
			}
			cfg.Vocab.Sets = sets
		}
	}

	if p := payload.Debug; p != nil {
		setValue(&cfg.Debug.EnableAudioDump, p.AudioDump)
		setValue(&cfg.Debug.EnableGRPCDump, p.GRPCDump)
	}

	if p := payload.Log; p != nil {
		setString(&cfg.Log.Level, p.Level)
		setValue(&cfg.Log.MaxBytes, p.MaxBytes)
	}

	return nil
}
