package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/wesleyorama2/timerset/pkg/timerset"
)

// ConsoleSink writes registry lines to a terminal or file.
type ConsoleSink struct {
	mu     sync.Mutex
	w      io.Writer
	text   *TextFormatter
	scheme *ColorScheme
}

// tracingConsoleSink additionally prints start/stop traces.
type tracingConsoleSink struct {
	*ConsoleSink
}

// NewConsoleSink returns a sink writing to w. Colors are used only when w
// is a terminal and noColor is unset. When verbose is set the sink also
// implements timerset.Tracer.
func NewConsoleSink(w io.Writer, noColor, verbose bool) timerset.Sink {
	plain := !UseColor(w, noColor)
	s := &ConsoleSink{
		w:      w,
		text:   NewTextFormatter(plain),
		scheme: SchemeFor(plain),
	}
	if verbose {
		return tracingConsoleSink{s}
	}
	return s
}

// Info writes one report line, coloring the event name.
func (s *ConsoleSink) Info(msg string) {
	if i := strings.LastIndex(msg, ": "); i > 0 {
		msg = s.text.FormatLine(msg[:i], msg)
	}
	s.writeln(msg)
}

func (s tracingConsoleSink) Trace(msg string) {
	s.writeln(s.scheme.Trace.Sprint(msg))
}

func (s *ConsoleSink) writeln(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, msg)
}
