package timerset

import "log"

// Sink receives the formatted lines produced by Print.
type Sink interface {
	Info(msg string)
}

// Tracer is implemented by sinks that also want a line at the start and
// end of every timing. It is checked once when the registry is built.
type Tracer interface {
	Trace(msg string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg string)

// Info calls f(msg).
func (f SinkFunc) Info(msg string) {
	f(msg)
}

type nopSink struct{}

func (nopSink) Info(string) {}

// NopSink discards everything.
var NopSink Sink = nopSink{}

type logSink struct {
	logger *log.Logger
}

// LogSink writes each line to logger.
func LogSink(logger *log.Logger) Sink {
	return logSink{logger: logger}
}

func (s logSink) Info(msg string) {
	s.logger.Print(msg)
}
