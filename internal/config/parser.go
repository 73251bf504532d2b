package config

import "strings"

// Parse layers JSONC content over base and validates the result.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg, err := layer(content, base)
	if err != nil {
		return Config{}, nil, err
	}
	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

// layer applies the keys present in content on top of base. Blank content
// leaves base untouched.
func layer(content string, base Config) (Config, error) {
	if strings.TrimSpace(content) == "" {
		return base, nil
	}
	var payload jsoncConfig
	if err := decodeJSONC(content, &payload); err != nil {
		return Config{}, err
	}
	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
