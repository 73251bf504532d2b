package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandToggle  Command = "toggle"
	CommandSay     Command = "say"
	CommandStop    Command = "stop"
	CommandStatus  Command = "status"
	CommandClose   Command = "close"
	CommandHistory Command = "history"
	CommandCatalog Command = "catalog"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandToggle:  {},
	CommandSay:     {},
	CommandStop:    {},
	CommandStatus:  {},
	CommandClose:   {},
	CommandHistory: {},
	CommandCatalog: {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	// Text is the broadcast text for say.
	Text string
	// ID selects one catalog item; empty lists the home sections.
	ID string
	// Limit caps history output; zero means the daemon default.
	Limit int
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if err := parseOperands(&parsed, args[i+1:]); err != nil {
				return Parsed{}, err
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

// parseOperands consumes everything after the command word.
func parseOperands(parsed *Parsed, rest []string) error {
	switch parsed.Command {
	case CommandSay:
		text := strings.TrimSpace(strings.Join(rest, " "))
		if text == "" {
			return errors.New("say requires text")
		}
		parsed.Text = text
		return nil
	case CommandCatalog:
		if len(rest) > 1 {
			return fmt.Errorf("unexpected arguments after command %q", parsed.Command)
		}
		if len(rest) == 1 {
			parsed.ID = strings.TrimSpace(rest[0])
		}
		return nil
	case CommandHistory:
		if len(rest) > 1 {
			return fmt.Errorf("unexpected arguments after command %q", parsed.Command)
		}
		if len(rest) == 1 {
			limit, err := strconv.Atoi(rest[0])
			if err != nil || limit <= 0 {
				return fmt.Errorf("history limit must be a positive integer, got %q", rest[0])
			}
			parsed.Limit = limit
		}
		return nil
	default:
		if len(rest) > 0 {
			return fmt.Errorf("unexpected arguments after command %q", parsed.Command)
		}
		return nil
	}
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Commands:
  run            Start the overlay daemon (tap to listen, drag to move)
  toggle         Start listening, or finish the current utterance
  say TEXT...    Broadcast TEXT through the running daemon
  stop           Stop broadcast playback and cancel listening
  status         Print current state
  close          Shut down the running daemon
  history [N]    Print the N most recent broadcasts
  catalog [ID]   Print sample catalog content, or one item by ID
  devices        List available input devices
  doctor         Run configuration and environment checks
  version        Print version information
  help           Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/hark/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
