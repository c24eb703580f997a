package tui

import "strings"

// exitCommands end a chat session when entered as a question.
var exitCommands = map[string]bool{
	"exit()": true,
	"exit":   true,
	"quit":   true,
}

// IsExitCommand reports whether input is the session-ending sentinel.
func IsExitCommand(input string) bool {
	return exitCommands[strings.ToLower(strings.TrimSpace(input))]
}
