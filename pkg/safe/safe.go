package safe

import (
	"log/slog"
	"runtime/debug"
	"strings"
)

// Run calls fn and logs a panic instead of letting it take the process down.
func Run(fn func()) {
	RunWithLog(fn, "safe.Run")
}

func RunWithLog(fn func(), component string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered",
				slog.Any("recover", r),
				slog.String("component", component),
				slog.String("stack", stackTrace(20)),
			)
		}
	}()

	fn()
}

// stackTrace keeps at most frames lines of the current goroutine stack.
func stackTrace(frames int) string {
	lines := strings.Split(strings.TrimSpace(string(debug.Stack())), "\n")
	if len(lines) > frames*2+1 {
		lines = append(lines[:frames*2+1], "... (truncated)")
	}
	return strings.Join(lines, "\n")
}
