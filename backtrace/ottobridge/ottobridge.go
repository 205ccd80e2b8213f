// Package ottobridge makes errors raised by the otto JavaScript interpreter
// known to the backtrace package. Importing it registers the script bridge
// runtime:
//
//	import _ "github.com/yext/glog-backtrace/backtrace/ottobridge"
//
// Errors returned by otto only describe their JavaScript frames in their
// String form; Wrap exposes those frames as a raw backtrace.
package ottobridge

import (
	"errors"
	"strings"

	"github.com/robertkrimen/otto"

	"github.com/yext/glog-backtrace/backtrace"
)

func init() {
	backtrace.Register(backtrace.ScriptBridge, isOttoError)
}

func isOttoError(err error) bool {
	_, ok := err.(*otto.Error)
	return ok
}

// Error carries the JavaScript backtrace of an otto error.
type Error struct {
	err   error
	lines []string
}

// Wrap returns err with its JavaScript backtrace attached. Errors that don't
// come from otto get an empty backtrace. Wrap(nil) is nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return &Error{err: err, lines: Lines(err)}
}

func (e *Error) Error() string       { return e.err.Error() }
func (e *Error) Unwrap() error       { return e.err }
func (e *Error) Backtrace() []string { return e.lines }

// Lines returns the frames otto recorded for the first otto error in the
// chain of err, innermost first, e.g. "f (<anonymous>:2:9)".
func Lines(err error) []string {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*otto.Error); ok {
			return traceLines(e.String())
		}
	}
	return nil
}

// traceLines keeps the frames of an otto trace without their leading "at":
//
//	Error: boom
//	    at f (<anonymous>:2:9)
//	    at <anonymous>:4:1
func traceLines(trace string) []string {
	var lines []string
	for _, l := range strings.Split(trace, "\n") {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "at ") {
			lines = append(lines, l[len("at "):])
		}
	}
	return lines
}
