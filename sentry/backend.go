// Package sentry is a glog backend that reports ERROR events to Sentry.
// Every error passed to glog becomes a Sentry exception, one per wrapped
// error, with frames read from the error's own backtrace (errors raised by an
// embedded runtime) or from the frames xerrors and yerrors record.
package sentry

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/yext/glog"

	"github.com/yext/glog-backtrace/backtrace"
	"github.com/yext/glog-backtrace/stacktrace"
)

// The maximum number of wrapped errors processed.
const maxErrorDepth = 10

var (
	sentryDebug = flag.Bool("sentryDebug", false,
		"enable debug mode in Sentry clients")
	sentryFingerprinting = flag.Bool("sentryFingerprinting", false,
		"enable server-side issue fingerprinting. If set, duplicate issues will only be tracked if they have equivalent filenames and line numbers")
	backtraceWarnings = flag.Bool("backtraceWarnings", true,
		"log a warning for every backtrace line that could not be parsed")

	hostname string
)

func init() {
	hostname, _ = os.Hostname()
	if short := strings.Index(hostname, "."); short != -1 {
		hostname = hostname[:short]
	}
}

// CaptureErrors reports glog ERROR events to Sentry until comm is closed.
// A client is created for every DSN (opts must not set one); events go to
// the first DSN unless tagged with AltDsn:
//
//	sentry.CaptureErrors(
//		"projectName",
//		[]string{"https://primaryDsn", "https://secondaryDsn"},
//		sentrygo.ClientOptions{Release: "release", Environment: "prod"},
//		glog.RegisterBackend())
//
//	glog.Error("error for secondary DSN", sentry.AltDsn("https://secondaryDsn"))
//
// It panics if no DSN is given or a client can't be created, since glog
// can't be used to report it.
func CaptureErrors(project string, dsns []string, opts sentry.ClientOptions, comm <-chan glog.Event) {
	if len(dsns) == 0 {
		panic("must specify at least one Sentry DSN")
	}

	hubs := make(map[string]*sentry.Hub)
	var primaryHub *sentry.Hub
	for _, dsn := range dsns {
		client, err := sentry.NewClient(buildClientOptions(dsn, opts))
		if err != nil {
			panic(err)
		}

		hub := sentry.NewHub(client, sentry.NewScope())
		hub.Scope().SetTag("project", project)
		if primaryHub == nil {
			primaryHub = hub
		}
		defer client.Flush(1 * time.Second)

		hubs[dsn] = hub
	}

	for glogEvent := range comm {
		if glogEvent.Severity != "ERROR" {
			continue
		}
		e, targetDsn := FromGlogEvent(glogEvent)
		if hub, ok := hubs[targetDsn]; ok {
			hub.CaptureEvent(e)
		} else {
			primaryHub.CaptureEvent(e)
		}
	}
}

func buildClientOptions(dsn string, opts sentry.ClientOptions) sentry.ClientOptions {
	opts.Dsn = dsn
	if !opts.Debug {
		opts.Debug = *sentryDebug
	}
	opts.ServerName = hostname
	return opts
}

// FromGlogEvent converts a glog event to a Sentry event. It also returns the
// DSN the event was tagged with, if any.
//
// The glog call site is the first exception of the event, followed by the
// logged error's chain from its innermost cause out to the error itself.
func FromGlogEvent(e glog.Event) (*sentry.Event, string) {
	targetDsn := ""

	s := sentry.NewEvent()
	s.Message = removeGlogPrefixFromMessage(e.Message)
	s.Level = buildLevel(e.Severity)
	s.ServerName = hostname
	s.Logger = filepath.Base(os.Args[0])
	s.Extra = map[string]interface{}{}

	data := map[string]interface{}{}
	formatType := ""
	for _, d := range e.Data {
		switch t := d.(type) {
		case altDsn:
			targetDsn = string(t)
		case fingerprint:
			s.Fingerprint = []string(t)
		case map[string]interface{}:
			for k, v := range t {
				data[k] = v
			}
		case glog.FormatStringArg:
			// The format string is free of unique identifiers, so it makes a
			// good exception type.
			formatType = cleanupFormatString(t.Format)
		case glog.ErrorArg:
			s.Exception = append(s.Exception, errorExceptions(t.Error)...)
		}
	}

	lines := stacktrace.CallerLines(e.StackTrace)
	if trace := stacktrace.ToSentry(backtrace.ParseLines(backtrace.Native, lines, warnings())); trace != nil {
		msgType, msgValue := splitMessage(s.Message)
		if formatType != "" {
			msgType = formatType
		}
		s.Exception = append(s.Exception, sentry.Exception{
			Type:       msgType,
			Value:      addExceptionSource(msgValue, trace),
			Stacktrace: trace,
		})
	}

	reverse(s.Exception)

	if len(s.Fingerprint) == 0 && *sentryFingerprinting {
		s.Fingerprint = buildFingerprint(s.Exception)
	}
	if len(data) > 0 {
		s.Extra["Data"] = data
	}
	return s, targetDsn
}

// errorExceptions builds an exception for err and every error it wraps,
// outermost first.
func errorExceptions(err error) []sentry.Exception {
	var r []sentry.Exception
	for i := 0; i < maxErrorDepth && err != nil; i++ {
		trace := stacktrace.ToSentry(stacktrace.Extract(err, warnings()))
		// Type is the issue title Sentry groups by, so anything after the
		// first colon moves to the value.
		msgType, msgValue := splitMessage(err.Error())
		r = append(r, sentry.Exception{
			Type:       msgType,
			Value:      addExceptionSource(msgValue, trace),
			Stacktrace: trace,
		})

		switch previous := err.(type) {
		case interface{ Unwrap() error }:
			err = previous.Unwrap()
		case interface{ Cause() error }:
			err = previous.Cause()
		default:
			err = nil
		}
	}
	return r
}

func warnings() backtrace.Logger {
	if *backtraceWarnings {
		return backtrace.GlogLogger
	}
	return backtrace.LoggerFunc(func(string) {})
}

// buildFingerprint fingerprints the in-app frames of the first exception.
func buildFingerprint(exceptions []sentry.Exception) []string {
	if len(exceptions) == 0 || exceptions[0].Stacktrace == nil {
		return nil
	}
	var r []string
	for _, f := range exceptions[0].Stacktrace.Frames {
		if f.InApp {
			r = append(r, fmt.Sprintf("%s in %s at line %d", f.Filename, f.Function, f.Lineno))
		}
	}
	return r
}

func reverse(e []sentry.Exception) {
	for i, j := 0, len(e)-1; i < j; i, j = i+1, j-1 {
		e[i], e[j] = e[j], e[i]
	}
}
