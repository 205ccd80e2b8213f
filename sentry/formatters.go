package sentry

import (
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"

	"github.com/yext/glog-backtrace/stacktrace"
)

var formatStringRe = regexp.MustCompile(`%#?\+?\w+ ?`)

// removeGlogPrefixFromMessage drops the "E1015 12:00:00.000000 1 file.go:10] "
// header glog puts in front of every message.
func removeGlogPrefixFromMessage(msg []byte) string {
	message := string(msg)
	if square := strings.Index(message, "] "); square != -1 {
		message = message[square+2:]
	}
	return message
}

// splitMessage splits the first line of msg at its first ": ".
func splitMessage(msg string) (string, string) {
	firstLine := strings.SplitN(strings.TrimSpace(msg), "\n", 2)[0]
	if i := strings.Index(firstLine, ": "); i != -1 {
		return firstLine[:i], firstLine[i+2:]
	}
	return firstLine, ""
}

// addExceptionSource appends the innermost frame of trace to value, in
// parentheses unless value is empty.
func addExceptionSource(value string, trace *sentry.Stacktrace) string {
	source := stacktrace.SourceFromStack(trace)
	switch {
	case value == "":
		return source
	case source == "":
		return value
	default:
		return value + " (" + source + ")"
	}
}

// cleanupFormatString strips the verbs from a printf format
// ("error performing action %s: %s" becomes "error performing action").
func cleanupFormatString(format string) string {
	format = formatStringRe.ReplaceAllString(format, "")
	format = strings.TrimSpace(format)
	format = strings.TrimSuffix(format, ":")
	return strings.TrimSpace(format)
}

// buildLevel converts a glog severity (INFO, WARNING, ERROR or FATAL) to a
// Sentry level.
func buildLevel(severity string) sentry.Level {
	return sentry.Level(strings.ToLower(severity))
}
