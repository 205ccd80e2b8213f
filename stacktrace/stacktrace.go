// Package stacktrace connects Go error values to the backtrace parser. It
// describes Go stacks (glog call sites, xerrors and yerrors frames) as raw
// backtrace lines and converts parsed frames into Sentry stack traces.
package stacktrace

import (
	"fmt"
	"runtime"

	"github.com/yext/glog-backtrace/backtrace"
)

// CallerLines describes program counters collected by runtime.Callers as
// native backtrace lines, innermost first. Frames without a file are skipped.
func CallerLines(pcs []uintptr) []string {
	if len(pcs) == 0 {
		return nil
	}

	lines := make([]string, 0, len(pcs))
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if frame.File != "" {
			lines = append(lines, nativeLine(frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return lines
}

// Extract returns the frames recorded for err itself. Errors with a raw
// backtrace are classified first; otherwise the xerrors frames of err are
// read as native lines. Causes of err are not included.
func Extract(err error, logger backtrace.Logger) []backtrace.Frame {
	if len(backtrace.Lines(err)) > 0 {
		return backtrace.Parse(err, logger)
	}
	return backtrace.ParseLines(backtrace.Native, XErrorLines(err), logger)
}

func nativeLine(file string, line int, function string) string {
	return fmt.Sprintf("%s:%d:in `%s'", file, line, function)
}
