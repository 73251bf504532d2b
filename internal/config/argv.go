package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ParseCommand splits raw into argv with shell-like quoting: single quotes
// are literal, double quotes honor backslash escapes, and a leading "~/"
// on the program expands to the home directory.
func ParseCommand(raw string) (CommandConfig, error) {
	words, err := splitWords(raw)
	if err != nil {
		return CommandConfig{}, err
	}
	if len(words) > 0 && strings.HasPrefix(words[0], "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			words[0] = filepath.Join(home, words[0][2:])
		}
	}
	return CommandConfig{Raw: strings.TrimSpace(raw), Argv: words}, nil
}

func splitWords(input string) ([]string, error) {
	const (
		plain = iota
		single
		double
	)

	var (
		words   []string
		word    strings.Builder
		inWord  bool
		mode    = plain
		escaped bool
	)

	for _, r := range input {
		if escaped {
			if mode == double && r != '"' && r != '\\' {
				word.WriteRune('\\')
			}
			word.WriteRune(r)
			escaped = false
			continue
		}

		switch mode {
		case single:
			if r == '\'' {
				mode = plain
			} else {
				word.WriteRune(r)
			}
		case double:
			switch r {
			case '"':
				mode = plain
			case '\\':
				escaped = true
			default:
				word.WriteRune(r)
			}
		default:
			switch {
			case r == '\\':
				escaped, inWord = true, true
			case r == '\'':
				mode, inWord = single, true
			case r == '"':
				mode, inWord = double, true
			case unicode.IsSpace(r):
				if inWord {
					words = append(words, word.String())
					word.Reset()
					inWord = false
				}
			default:
				word.WriteRune(r)
				inWord = true
			}
		}
	}

	switch {
	case escaped:
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	case mode != plain:
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	if inWord {
		words = append(words, word.String())
	}
	return words, nil
}

func mustCommand(raw string) CommandConfig {
	cmd, err := ParseCommand(raw)
	if err != nil {
		panic(err)
	}
	return cmd
}
