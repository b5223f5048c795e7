package repl

import (
	"strings"

	"github.com/samber/lo"
)

// builtins are handled by the REPL itself.
var builtins = []string{"complete", "history", "help", "exit", "quit"}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer for the given command paths
// ("key", "key list", ...) plus the REPL built-ins.
func NewCompleter(commands ...string) *Completer {
	return &Completer{
		commands: lo.Uniq(append(append([]string{}, commands...), builtins...)),
	}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	return lo.Filter(c.commands, func(cmd string, _ int) bool {
		return strings.HasPrefix(cmd, prefix)
	})
}
