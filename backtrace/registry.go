package backtrace

import (
	"fmt"
	"sync"
)

// The maximum number of causes inspected when looking for a bridge error.
const maxCauseDepth = 10

// The number of leading lines sniffed for bridge frames when the error can't
// report its cause.
const sniffedLines = 3

// A Matcher reports whether err is an error value of one specific runtime,
// e.g. a JVM throwable or a database driver error. Matchers inspect err
// itself; the classifier walks causes on its own.
type Matcher func(err error) bool

// Registry records which optional runtimes are available in the process and
// how to recognize their errors. The zero value is ready to use.
type Registry struct {
	mu       sync.RWMutex
	matchers map[Family][]Matcher
}

// DefaultRegistry is used by the package level functions. Runtime adapters
// register themselves here from init.
var DefaultRegistry = &Registry{}

// Register makes a runtime available for classification. It panics if family
// is Native or unknown, or if m is nil.
func Register(family Family, m Matcher) {
	DefaultRegistry.Register(family, m)
}

// Supports reports whether the runtime behind family is available.
func Supports(family Family) bool {
	return DefaultRegistry.Supports(family)
}

// Classify picks the family of err using the DefaultRegistry.
func Classify(err error) Family {
	return DefaultRegistry.Classify(err)
}

func (r *Registry) Register(family Family, m Matcher) {
	if family == Native || !family.valid() {
		panic(fmt.Sprintf("backtrace: can't register a runtime for %v", family))
	}
	if m == nil {
		panic(fmt.Sprintf("backtrace: nil matcher registered for %v", family))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.matchers == nil {
		r.matchers = make(map[Family][]Matcher)
	}
	r.matchers[family] = append(r.matchers[family], m)
}

func (r *Registry) Supports(family Family) bool {
	if family == Native {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matchers[family]) > 0
}

// Classify returns the family whose patterns should be used for the backtrace
// of err. The checks run in a fixed priority order: managed VM, database
// driver, script bridge, and finally native. A runtime that isn't registered
// never matches.
func (r *Registry) Classify(err error) Family {
	if err == nil {
		return Native
	}
	if r.is(ManagedVM, err) {
		return ManagedVM
	}
	if r.is(DatabaseDriver, err) {
		return DatabaseDriver
	}
	if r.isScriptBridge(err) {
		return ScriptBridge
	}
	return Native
}

func (r *Registry) isScriptBridge(err error) bool {
	if !r.Supports(ScriptBridge) {
		return false
	}
	if r.is(ScriptBridge, err) {
		return true
	}

	cur, ok := cause(err)
	if !ok {
		// No way to reach the cause, so look at the frames themselves.
		return hasBridgeFrames(Lines(err))
	}
	for i := 0; i < maxCauseDepth && cur != nil; i++ {
		if r.is(ScriptBridge, cur) {
			return true
		}
		cur, _ = cause(cur)
	}
	return false
}

func (r *Registry) is(family Family, err error) bool {
	r.mu.RLock()
	matchers := r.matchers[family]
	r.mu.RUnlock()

	for _, m := range matchers {
		if safeMatch(m, err) {
			return true
		}
	}
	return false
}

// safeMatch keeps a misbehaving matcher from breaking error reporting.
func safeMatch(m Matcher, err error) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	return m(err)
}

// cause returns the error wrapped by err. ok is false when err offers no way
// of reporting a cause at all.
func cause(err error) (next error, ok bool) {
	switch e := err.(type) {
	case interface{ Unwrap() error }:
		return e.Unwrap(), true
	case interface{ Cause() error }:
		return e.Cause(), true
	default:
		return nil, false
	}
}

func hasBridgeFrames(lines []string) bool {
	if len(lines) > sniffedLines {
		lines = lines[:sniffedLines]
	}
	for _, l := range lines {
		if simplifiedBridgePattern.MatchString(l) {
			return true
		}
	}
	return false
}
