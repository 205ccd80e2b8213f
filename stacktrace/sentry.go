package stacktrace

import (
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"

	"github.com/yext/glog-backtrace/backtrace"
)

// ToSentry converts parsed frames, innermost first, to a Sentry stack trace,
// which lists the outermost frame first. It returns nil when there are no
// frames so that Sentry omits the trace.
func ToSentry(frames []backtrace.Frame) *sentry.Stacktrace {
	if len(frames) == 0 {
		return nil
	}

	st := &sentry.Stacktrace{Frames: make([]sentry.Frame, len(frames))}
	for i, f := range frames {
		sf := sentry.Frame{
			Function: f.Function,
			Filename: f.File,
			Lineno:   f.Line,
			InApp:    f.File != "",
		}
		if strings.HasPrefix(f.File, "/") {
			sf.AbsPath = f.File
		}
		st.Frames[len(frames)-1-i] = sf
	}
	return st
}

// SourceFromStack retrieves the function and line of the innermost frame in
// the format "file.Function:118".
func SourceFromStack(s *sentry.Stacktrace) string {
	if s == nil || len(s.Frames) == 0 {
		return ""
	}

	f := s.Frames[len(s.Frames)-1]
	if f.Lineno == 0 {
		return f.Function
	}
	return f.Function + ":" + strconv.Itoa(f.Lineno)
}
