package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// decodeJSONC strictly decodes one JSONC document into out. Errors carry
// line and column positions of the normalized text, which preserves the
// original layout.
func decodeJSONC(content string, out any) error {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return wrapJSONDecodeError(normalized, err)
	}
	return nil
}

// normalizeJSONC blanks comments and drops trailing commas. Comment bytes
// become spaces so offsets keep pointing at the same line and column.
func normalizeJSONC(content string) (string, error) {
	src := []byte(content)
	out := make([]byte, 0, len(src))

	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case ch == '"':
			end := skipJSONString(src, i)
			out = append(out, src[i:end]...)
			i = end - 1

		case ch == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' && src[i] != '\r' {
				out = append(out, ' ')
				i++
			}
			i--

		case ch == '/' && i+1 < len(src) && src[i+1] == '*':
			closeAt := strings.Index(content[i+2:], "*/")
			if closeAt < 0 {
				return "", fmt.Errorf("unterminated block comment in JSONC")
			}
			end := i + 2 + closeAt + 2
			for _, c := range src[i:end] {
				out = append(out, blankComment(c))
			}
			i = end - 1

		default:
			out = append(out, ch)
		}
	}

	return dropTrailingCommas(out), nil
}

// skipJSONString returns the index just past the string literal opening at start.
func skipJSONString(src []byte, start int) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(src)
}

func blankComment(c byte) byte {
	if c == '\n' || c == '\r' || c == '\t' {
		return c
	}
	return ' '
}

func dropTrailingCommas(src []byte) string {
	var out strings.Builder
	out.Grow(len(src))

	for i := 0; i < len(src); i++ {
		ch := src[i]
		if ch == '"' {
			end := skipJSONString(src, i)
			out.Write(src[i:end])
			i = end - 1
			continue
		}
		if ch == ',' {
			j := i + 1
			for j < len(src) && isJSONWhitespace(src[j]) {
				j++
			}
			if j < len(src) && (src[j] == '}' || src[j] == ']') {
				continue
			}
		}
		out.WriteByte(ch)
	}
	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\n' || ch == '\r' || ch == '\t'
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var offset int64 = -1

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	}
	if offset < 0 {
		return err
	}

	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	limit := min(int(offset), len(content))
	prefix := content[:max(limit-1, 0)]

	line := strings.Count(prefix, "\n") + 1
	col := len(prefix) - strings.LastIndex(prefix, "\n")
	return line, col
}
