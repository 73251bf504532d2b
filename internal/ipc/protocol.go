// Package ipc carries newline-delimited JSON commands between hark CLI
// invocations and the running daemon over a unix socket.
package ipc

import (
	"errors"
	"strings"

	"github.com/rbright/hark/internal/history"
)

// Commands understood by the daemon.
const (
	CommandStatus  = "status"
	CommandToggle  = "toggle"
	CommandSay     = "say"
	CommandStop    = "stop"
	CommandClose   = "close"
	CommandHistory = "history"
)

// maxRequestBytes bounds one request line, broadcast text included.
const maxRequestBytes = 64 << 10

type Request struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Validate rejects requests no daemon state could accept. Unknown commands
// pass through so the handler can name them.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.Command) == "":
		return errors.New("missing command")
	case r.Command == CommandSay && strings.TrimSpace(r.Text) == "":
		return errors.New("say requires text")
	case r.Limit < 0:
		return errors.New("limit must not be negative")
	}
	return nil
}

type Response struct {
	OK      bool            `json:"ok"`
	State   string          `json:"state,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Entries []history.Entry `json:"entries,omitempty"`
}
