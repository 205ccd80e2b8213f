// Package gelf is a glog backend that forwards events to a Graylog server.
package gelf

import (
	"fmt"
	"strings"

	"github.com/aphistic/golf"
	"github.com/yext/glog"
	"golang.org/x/time/rate"
	"golang.org/x/xerrors"

	"github.com/yext/glog-backtrace/backtrace"
	"github.com/yext/glog-backtrace/stacktrace"
)

// Capture sends events to the gelf server until eventCh is closed.
// Events sent at a higher rate than maxEventsPerSec are dropped.
// The uri must have a udp or tcp scheme.
func Capture(attrs map[string]interface{}, serverURI string, maxEventsPerSec int, eventCh <-chan glog.Event) error {
	c, err := golf.NewClient()
	if err != nil {
		return xerrors.Errorf("gelf client: %w", err)
	}
	defer c.Close()

	if err := c.Dial(serverURI); err != nil {
		return xerrors.Errorf("dial %s: %w", serverURI, err)
	}
	logger, err := c.NewLogger()
	if err != nil {
		return xerrors.Errorf("gelf logger: %w", err)
	}
	for k, v := range attrs {
		logger.SetAttr(k, v)
	}

	limiter := rate.NewLimiter(rate.Limit(maxEventsPerSec), maxEventsPerSec)
	for e := range eventCh {
		if !limiter.Allow() {
			continue
		}
		logEvent(logger, e)
	}
	return nil
}

func logEvent(logger *golf.Logger, e glog.Event) {
	data, message := eventData(e)
	switch e.Severity {
	case "INFO":
		logger.Infom(data, "%s", message)
	case "WARNING":
		logger.Warnm(data, "%s", message)
	case "ERROR":
		logger.Errm(data, "%s", message)
	case "FATAL":
		logger.Critm(data, "%s", message)
	}
}

// eventData flattens the data attached to e and its stack trace into GELF
// additional fields.
func eventData(e glog.Event) (map[string]interface{}, string) {
	data := map[string]interface{}{}
	var frames []backtrace.Frame
	for _, d := range e.Data {
		switch t := d.(type) {
		case map[string]interface{}:
			for k, v := range t {
				data[k] = v
			}
		case glog.ErrorArg:
			frames = append(frames, stacktrace.Extract(t.Error, backtrace.GlogLogger)...)
		}
	}
	lines := stacktrace.CallerLines(e.StackTrace)
	frames = append(frames, backtrace.ParseLines(backtrace.Native, lines, backtrace.GlogLogger)...)

	if len(frames) > 0 {
		data["exceptionStackTrace"] = formatFrames(frames)
	}
	data["levelName"] = e.Severity
	return data, string(e.Message)
}

func formatFrames(frames []backtrace.Frame) string {
	s := make([]string, len(frames))
	for i, f := range frames {
		s[i] = fmt.Sprintf("function %s at line %d", f.Function, f.Line)
	}
	return strings.Join(s, ", ")
}
