package config

import (
	"fmt"
	"sort"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	var warnings []Warning

	if strings.TrimSpace(cfg.ASR.GRPC) == "" {
		return nil, fmt.Errorf("asr.grpc must not be empty")
	}
	if strings.TrimSpace(cfg.ASR.LanguageCode) == "" {
		return nil, fmt.Errorf("asr.language_code must not be empty")
	}
	if cfg.ASR.MaxListenMS < 0 {
		return nil, fmt.Errorf("asr.max_listen_ms must be >= 0")
	}
	if cfg.ASR.DialTimeoutMS <= 0 {
		return nil, fmt.Errorf("asr.dial_timeout_ms must be > 0")
	}

	if len(cfg.TTS.Command.Argv) == 0 {
		return nil, fmt.Errorf("tts.command must not be empty")
	}
	for name, level := range map[string]int{"tts.volume": cfg.TTS.Volume, "tts.rate": cfg.TTS.Rate, "tts.pitch": cfg.TTS.Pitch} {
		if level < 0 || level > 100 {
			return nil, fmt.Errorf("%s must be within 0..100", name)
		}
	}

	if strings.TrimSpace(cfg.Overlay.WindowClass) == "" {
		return nil, fmt.Errorf("overlay.window_class must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Overlay.PointerSource)) {
	case "hook", "none":
	default:
		return nil, fmt.Errorf("overlay.pointer_source must be one of: hook, none")
	}

	if cfg.Gesture.LongPressMS <= 0 {
		return nil, fmt.Errorf("gesture.long_press_ms must be > 0")
	}
	if cfg.Gesture.DragThreshold < 0 {
		return nil, fmt.Errorf("gesture.drag_threshold must be >= 0")
	}
	if cfg.Gesture.LongPressMS < 200 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("gesture.long_press_ms=%d is short; taps may register as long presses", cfg.Gesture.LongPressMS)})
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if cfg.History.MaxEntries <= 0 {
		return nil, fmt.Errorf("history.max_entries must be > 0")
	}
	if cfg.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("vocab.max_phrases must be > 0")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	_, vocabWarnings, err := BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	return warnings, nil
}

// BuildSpeechPhrases merges enabled vocab sets into deterministic ASR phrase
// payloads. A phrase listed by several sets keeps the highest boost.
func BuildSpeechPhrases(cfg Config) ([]SpeechPhrase, []Warning, error) {
	if len(cfg.Vocab.GlobalSets) == 0 {
		return nil, nil, nil
	}

	type origin struct {
		boost float64
		set   string
	}

	var warnings []Warning
	chosen := make(map[string]origin)

	for _, name := range cfg.Vocab.GlobalSets {
		set, ok := cfg.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			prev, seen := chosen[phrase]
			switch {
			case !seen:
				chosen[phrase] = origin{boost: set.Boost, set: name}
			case set.Boost > prev.boost:
				warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q; using higher boost %.2f", phrase, prev.set, name, set.Boost)})
				chosen[phrase] = origin{boost: set.Boost, set: name}
			}
		}
	}

	if len(chosen) > cfg.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds vocab.max_phrases=%d", len(chosen), cfg.Vocab.MaxPhrases)
	}

	phrases := make([]SpeechPhrase, 0, len(chosen))
	for phrase, o := range chosen {
		phrases = append(phrases, SpeechPhrase{Phrase: phrase, Boost: float32(o.boost)})
	}
	sort.Slice(phrases, func(i, j int) bool { return phrases[i].Phrase < phrases[j].Phrase })

	return phrases, warnings, nil
}
