// Package backtrace turns the raw backtrace lines of an error into structured
// frames. Lines may come from the native runtime or from one of the optional
// runtimes an application embeds (a JVM, an Oracle driver, a JavaScript
// engine); Classify decides which one produced an error and Parse reads its
// lines with the matching patterns, falling back to the native ones.
//
// Lines that can't be read are never fatal: they become a frame holding the
// raw text as its function and are reported through a Logger.
package backtrace

import (
	"regexp"
	"strconv"

	"github.com/yext/glog"
)

// Frame is one normalized location of a backtrace.
// An empty File and a zero Line mean the value is unknown.
type Frame struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Function string `json:"function"`
}

// Backtracer is implemented by errors that carry the raw backtrace of the
// runtime they were raised in, innermost line first.
type Backtracer interface {
	Backtrace() []string
}

// Logger receives a diagnostic for every line no pattern could read.
type Logger interface {
	Warn(msg string)
}

// LoggerFunc adapts a function to a Logger.
type LoggerFunc func(msg string)

func (f LoggerFunc) Warn(msg string) { f(msg) }

// GlogLogger writes diagnostics at glog's WARNING level.
var GlogLogger Logger = LoggerFunc(func(msg string) {
	glog.Warning(msg)
})

// Lines returns the raw backtrace of err, or nil if it has none.
func Lines(err error) []string {
	if bt, ok := err.(Backtracer); ok {
		return bt.Backtrace()
	}
	return nil
}

// Parse classifies err with the DefaultRegistry and parses its backtrace.
// A nil logger writes to glog.
func Parse(err error, logger Logger) []Frame {
	return DefaultRegistry.Parse(err, logger)
}

// Parse classifies err and parses its backtrace.
func (r *Registry) Parse(err error, logger Logger) []Frame {
	lines := Lines(err)
	if len(lines) == 0 {
		return []Frame{}
	}
	return ParseLines(r.Classify(err), lines, logger)
}

// ParseLines parses every line with the given family. The result always has
// one frame per line, in the same order.
func ParseLines(family Family, lines []string, logger Logger) []Frame {
	frames := make([]Frame, len(lines))
	for i, l := range lines {
		frames[i] = ParseLine(family, l, logger)
	}
	return frames
}

// ParseLine reads a single line. Lines the family doesn't recognize are
// retried with the native patterns; if those fail as well, the whole line is
// kept as the function and logger is told about it.
func ParseLine(family Family, line string, logger Logger) Frame {
	if f, ok := match(family.pattern(), line); ok {
		return f
	}
	if family != Native {
		if f, ok := match(nativePattern, line); ok {
			return f
		}
	}

	if logger == nil {
		logger = GlogLogger
	}
	logger.Warn("can't parse backtrace line: " + line)
	return Frame{Function: line}
}

// match extracts the named captures of re. Families reuse names across
// alternatives, so the first group of a name that took part in the match wins.
func match(re *regexp.Regexp, line string) (Frame, bool) {
	loc := re.FindStringSubmatchIndex(line)
	if loc == nil {
		return Frame{}, false
	}

	var (
		f                         Frame
		gotFile, gotLine, gotFunc bool
	)
	for i, name := range re.SubexpNames() {
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			continue
		}
		v := line[start:end]
		switch {
		case name == "file" && !gotFile:
			f.File, gotFile = v, true
		case name == "line" && !gotLine:
			f.Line, gotLine = lineNumber(v), true
		case name == "function" && !gotFunc:
			f.Function, gotFunc = v, true
		}
	}
	return f, true
}

// lineNumber returns 0 for anything that isn't a positive int.
func lineNumber(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
