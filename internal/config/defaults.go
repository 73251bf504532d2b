package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		ASR: ASRConfig{
			GRPC:          "127.0.0.1:50051",
			LanguageCode:  "en-US",
			MaxListenMS:   15000,
			DialTimeoutMS: 3000,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		TTS: TTSConfig{
			Command: mustCommand("espeak-ng --stdout"),
			Voice:   "en",
			Volume:  100,
			Rate:    33,
			Pitch:   33,
		},
		Overlay: OverlayConfig{
			WindowClass:   "hark-overlay",
			PointerSource: "hook",
		},
		Gesture: GestureConfig{
			LongPressMS:   500,
			DragThreshold: 10,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "hark-indicator",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		History: HistoryConfig{Enable: true, MaxEntries: 200},
		Log:     LogConfig{Level: "info", MaxBytes: 4 << 20},
		Vocab: VocabConfig{
			Sets:       map[string]VocabSet{},
			MaxPhrases: 1024,
		},
	}
}
