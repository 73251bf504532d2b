package command

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

const (
	msgUnrecognized     = "unrecognized command"
	msgMissingBroadcast = "could not identify content to broadcast"
)

type rule struct {
	keywords []string
	classify func(source, text string, keywords []string) Result
}

// Interpreter maps transcripts onto actions by ordered keyword matching.
type Interpreter struct {
	rules []rule

	mu       sync.Mutex
	listener func(Result)
}

// New builds an interpreter. Empty groups in kw fall back to DefaultKeywords.
func New(kw Keywords) *Interpreter {
	kw = DefaultKeywords().Merge(kw)
	return &Interpreter{
		rules: []rule{
			{keywords: normalizeKeywords(kw.Broadcast), classify: classifyBroadcast},
			{keywords: normalizeKeywords(kw.Stop), classify: fixed(ActionStopBroadcast, "broadcast stopped")},
			{keywords: normalizeKeywords(kw.Volume), classify: level(ActionAdjustVolume, "volume")},
			{keywords: normalizeKeywords(kw.Speed), classify: level(ActionAdjustSpeed, "speed")},
			{keywords: normalizeKeywords(kw.Pitch), classify: level(ActionAdjustPitch, "pitch")},
			{keywords: normalizeKeywords(kw.Close), classify: fixed(ActionCloseFloatingWindow, "closing floating window")},
		},
	}
}

var defaultInterpreter = New(Keywords{})

// Classify runs text through the built-in keyword set.
func Classify(text string) Result {
	return defaultInterpreter.Classify(text)
}

// Classify maps one transcript to a Result. It never fails; unmatched or
// incomplete commands come back with Success=false.
func (i *Interpreter) Classify(text string) Result {
	normalized := normalizeText(text)
	if normalized != "" {
		for _, r := range i.rules {
			if containsAny(normalized, r.keywords) {
				return r.classify(text, normalized, r.keywords)
			}
		}
	}
	return Result{Success: false, Message: msgUnrecognized, SourceCommand: text, Action: ActionNone}
}

// SetListener registers the single result consumer, replacing any previous one.
// A nil fn clears the slot.
func (i *Interpreter) SetListener(fn func(Result)) {
	i.mu.Lock()
	i.listener = fn
	i.mu.Unlock()
}

// Execute classifies text and hands the result to the listener synchronously.
func (i *Interpreter) Execute(text string) Result {
	result := i.Classify(text)

	i.mu.Lock()
	listener := i.listener
	i.mu.Unlock()

	if listener != nil {
		listener(result)
	}
	return result
}

func classifyBroadcast(source, text string, keywords []string) Result {
	payload := text
	for _, kw := range keywords {
		payload = strings.ReplaceAll(payload, kw, "")
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Result{Success: false, Message: msgMissingBroadcast, SourceCommand: source, Action: ActionNone}
	}
	return Result{
		Success:       true,
		Message:       "broadcasting: " + payload,
		SourceCommand: source,
		Action:        ActionStartBroadcast,
		Payload:       payload,
	}
}

func fixed(action Action, message string) func(string, string, []string) Result {
	return func(source, _ string, _ []string) Result {
		return Result{Success: true, Message: message, SourceCommand: source, Action: action}
	}
}

func level(action Action, name string) func(string, string, []string) Result {
	return func(source, text string, _ []string) Result {
		value, ok := firstNumber(text)
		if !ok {
			return Result{
				Success:       false,
				Message:       fmt.Sprintf("could not identify %s value", name),
				SourceCommand: source,
				Action:        ActionNone,
			}
		}
		return Result{
			Success:       true,
			Message:       fmt.Sprintf("%s set to %d", name, value),
			SourceCommand: source,
			Action:        action,
			Value:         value,
		}
	}
}

// firstNumber parses the first run of ASCII digits. A run that overflows int
// counts as no number.
func firstNumber(text string) (int, bool) {
	start := strings.IndexFunc(text, isASCIIDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(text) && isASCIIDigit(rune(text[end])) {
		end++
	}
	value, err := strconv.Atoi(text[start:end])
	if err != nil {
		return 0, false
	}
	return value, true
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
