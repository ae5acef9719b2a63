package timer

import (
	"strconv"
	"strings"
)

// CommandKind identifies an inbound timer command
type CommandKind int

const (
	CommandStart CommandKind = iota + 1
	CommandStop
)

// Command is a parsed client command
type Command struct {
	Kind     CommandKind
	Duration int64 // milliseconds, set for CommandStart
}

// ParseCommand parses a text frame into a command.
// ok is false for anything that should be ignored: unknown text, a start
// without a parseable duration, or a non-positive duration.
func ParseCommand(msg string) (Command, bool) {
	if msg == "stop" {
		return Command{Kind: CommandStop}, true
	}

	if !strings.HasPrefix(msg, "start ") {
		return Command{}, false
	}

	// Only the token right after "start " counts; "start  500" carries an empty token.
	token := strings.Split(msg, " ")[1]
	duration, ok := leadingInt(token)
	if !ok || duration <= 0 {
		return Command{}, false
	}

	return Command{Kind: CommandStart, Duration: duration}, true
}

// leadingInt reads an optionally signed run of decimal digits at the start of s,
// ignoring leading whitespace and anything after the digits ("1500ms" -> 1500).
func leadingInt(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t\r\n")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
