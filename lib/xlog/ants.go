package xlog

import (
	"fmt"
)

// AntsXLogger satisfies ants.Logger for the fold workers pool.
type AntsXLogger struct {
	logger XLogger
}

func (l *AntsXLogger) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func NewAntsXLogger(logger XLogger) *AntsXLogger {
	return &AntsXLogger{logger: componentLogger(logger, "ants")}
}
