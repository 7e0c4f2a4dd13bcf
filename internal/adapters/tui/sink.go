package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
)

// Sink forwards project events into a running bubbletea program.
type Sink struct {
	program *tea.Program
}

var _ ports.EventSink = (*Sink)(nil)

// NewSink wraps a program as an event sink.
func NewSink(program *tea.Program) *Sink {
	return &Sink{program: program}
}

// Publish sends the event into the TUI loop; safe for concurrent use.
func (s *Sink) Publish(event domain.ProjectEvent) {
	s.program.Send(EventMsg{Event: event})
}

// LoggerSink renders events through the plain logger instead of the TUI.
type LoggerSink struct {
	logger ports.Logger
}

var _ ports.EventSink = (*LoggerSink)(nil)

// NewLoggerSink creates a plain-output event sink.
func NewLoggerSink(logger ports.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// Publish logs the event's rendered form.
func (s *LoggerSink) Publish(event domain.ProjectEvent) {
	s.logger.Info(event.String())
}
