package main

import (
	"github.com/charmbracelet/log"
)

// logAdapter lets a charmbracelet logger serve as bootloader.Logger and
// transport.Logger.
type logAdapter struct {
	l *log.Logger
}

func (a logAdapter) Debug(msg string, keysAndValues ...interface{}) {
	a.l.Debug(msg, keysAndValues...)
}

func (a logAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.l.Info(msg, keysAndValues...)
}

func (a logAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.l.Error(msg, keysAndValues...)
}
