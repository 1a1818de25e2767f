package miqps

import "fmt"

// Logger receives progress messages. A *log.Logger satisfies it.
type Logger interface {
	Print(v ...interface{})
}

type noopLogger struct{}

func (noopLogger) Print(v ...interface{}) {}

// logf prints to the solver's logger when the call's verbosity is at least level.
func (s *Solver) logf(opt *Options, level int, format string, args ...interface{}) {
	if opt.Verbose < level {
		return
	}
	s.logger.Print(fmt.Sprintf(format, args...))
}
