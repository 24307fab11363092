package script

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// consoleBuffer collects formatted log lines for one eval call; it is a
// console whose methods are rebound fresh before every call.
type consoleBuffer struct {
	lines []string
}

func (c *consoleBuffer) append(level string, args []goja.Value) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	c.lines = append(c.lines, fmt.Sprintf("[%s] %s", level, strings.Join(parts, " ")))
}

func (c *consoleBuffer) join() string {
	return strings.Join(c.lines, "\n")
}

// bindConsole installs a fresh console global backed by buf.
func bindConsole(vm *goja.Runtime, buf *consoleBuffer) error {
	console := vm.NewObject()
	for _, level := range []string{"log", "error", "warn", "info"} {
		level := level
		if err := console.Set(level, func(call goja.FunctionCall) goja.Value {
			buf.append(strings.ToUpper(level), call.Arguments)
			return goja.Undefined()
		}); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}
