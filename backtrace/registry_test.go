package backtrace_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yext/glog-backtrace/backtrace"
)

// rawError is an error with a backtrace and no way to reach a cause.
type rawError struct {
	msg   string
	lines []string
}

func (e *rawError) Error() string       { return e.msg }
func (e *rawError) Backtrace() []string { return e.lines }

type throwable struct{ rawError }

type oraError struct{ rawError }

type jsError struct{ rawError }

// wrapped reports its cause through Unwrap.
type wrapped struct {
	rawError
	cause error
}

func (e *wrapped) Unwrap() error { return e.cause }

// caused reports its cause the pkg/errors way.
type caused struct {
	rawError
	cause error
}

func (e *caused) Cause() error { return e.cause }

func isType[T error](err error) bool {
	_, ok := err.(T)
	return ok
}

func loadedRegistry() *backtrace.Registry {
	r := &backtrace.Registry{}
	r.Register(backtrace.ManagedVM, isType[*throwable])
	r.Register(backtrace.DatabaseDriver, isType[*oraError])
	r.Register(backtrace.ScriptBridge, isType[*jsError])
	return r
}

var bridgeLines = []string{
	"/app/lib/execjs/external_runtime.rb:39:in `exec'",
	"compile ((execjs):6692:19)",
	"bootstrap_node.js:467:3",
}

func TestClassifyWithoutRuntimes(t *testing.T) {
	r := &backtrace.Registry{}

	assert.Equal(t, backtrace.Native, r.Classify(nil))
	assert.Equal(t, backtrace.Native, r.Classify(&throwable{}))
	assert.Equal(t, backtrace.Native, r.Classify(&oraError{}))
	assert.Equal(t, backtrace.Native, r.Classify(&jsError{}))
	assert.Equal(t, backtrace.Native, r.Classify(&rawError{lines: bridgeLines}),
		"bridge frames mean nothing while no bridge is loaded")

	assert.True(t, r.Supports(backtrace.Native))
	assert.False(t, r.Supports(backtrace.ManagedVM))
	assert.False(t, r.Supports(backtrace.DatabaseDriver))
	assert.False(t, r.Supports(backtrace.ScriptBridge))
}

func TestClassifyRuntimeTypes(t *testing.T) {
	r := loadedRegistry()

	assert.Equal(t, backtrace.ManagedVM, r.Classify(&throwable{}))
	assert.Equal(t, backtrace.DatabaseDriver, r.Classify(&oraError{}))
	assert.Equal(t, backtrace.ScriptBridge, r.Classify(&jsError{}))
	assert.Equal(t, backtrace.Native, r.Classify(errors.New("plain")))
	assert.Equal(t, backtrace.Native, r.Classify(nil))
}

func TestClassifyPriority(t *testing.T) {
	r := &backtrace.Registry{}
	always := func(error) bool { return true }
	r.Register(backtrace.ScriptBridge, always)
	r.Register(backtrace.DatabaseDriver, always)
	assert.Equal(t, backtrace.DatabaseDriver, r.Classify(errors.New("x")))

	r.Register(backtrace.ManagedVM, always)
	assert.Equal(t, backtrace.ManagedVM, r.Classify(errors.New("x")))
}

func TestClassifyBridgeCause(t *testing.T) {
	r := loadedRegistry()

	assert.Equal(t, backtrace.ScriptBridge, r.Classify(&wrapped{cause: &jsError{}}))
	assert.Equal(t, backtrace.ScriptBridge, r.Classify(&caused{cause: &jsError{}}))
	assert.Equal(t, backtrace.ScriptBridge,
		r.Classify(fmt.Errorf("render: %w", &wrapped{cause: &jsError{}})),
		"causes further down the chain count too")

	// Only the bridge looks at causes.
	assert.Equal(t, backtrace.Native, r.Classify(&wrapped{cause: &throwable{}}))
	assert.Equal(t, backtrace.Native, r.Classify(&wrapped{cause: &oraError{}}))
}

func TestClassifyBridgeFrameSniffing(t *testing.T) {
	r := loadedRegistry()

	assert.Equal(t, backtrace.ScriptBridge, r.Classify(&rawError{lines: bridgeLines}))

	late := []string{
		"/app/a.rb:1:in `a'",
		"/app/b.rb:2:in `b'",
		"/app/c.rb:3:in `c'",
		"compile ((execjs):6692:19)",
	}
	assert.Equal(t, backtrace.Native, r.Classify(&rawError{lines: late}),
		"only the leading frames are sniffed")

	// Errors that can report a cause are never sniffed.
	assert.Equal(t, backtrace.Native, r.Classify(&wrapped{rawError: rawError{lines: bridgeLines}}))
	assert.Equal(t, backtrace.Native, r.Classify(&caused{rawError: rawError{lines: bridgeLines}}))
}

func TestClassifyPanickingMatcher(t *testing.T) {
	r := &backtrace.Registry{}
	r.Register(backtrace.ManagedVM, func(error) bool { panic("boom") })

	assert.NotPanics(t, func() {
		assert.Equal(t, backtrace.Native, r.Classify(errors.New("x")))
	})
}

func TestRegisterRejectsBadRuntimes(t *testing.T) {
	r := &backtrace.Registry{}
	ok := func(error) bool { return true }

	assert.Panics(t, func() { r.Register(backtrace.Native, ok) })
	assert.Panics(t, func() { r.Register(backtrace.Family(42), ok) })
	assert.Panics(t, func() { r.Register(backtrace.ManagedVM, nil) })
	assert.False(t, r.Supports(backtrace.ManagedVM))
}

func TestRegistryParse(t *testing.T) {
	r := loadedRegistry()

	t.Run("no backtrace", func(t *testing.T) {
		log := &recorder{}
		assert.Empty(t, r.Parse(nil, log))
		assert.Empty(t, r.Parse(errors.New("no lines"), log))
		assert.Empty(t, r.Parse(&rawError{}, log))
		assert.Empty(t, log.msgs)
	})

	t.Run("managed vm", func(t *testing.T) {
		log := &recorder{}
		err := &throwable{rawError{lines: []string{
			"org.jruby.ast.NewlineNode.interpret(NewlineNode.java:105)",
			"/app/lib/worker.rb:12:in `perform'",
		}}}
		frames := r.Parse(err, log)

		require.Len(t, frames, 2)
		assert.Equal(t, backtrace.Frame{File: "NewlineNode.java", Line: 105, Function: "org.jruby.ast.NewlineNode.interpret"}, frames[0])
		assert.Equal(t, backtrace.Frame{File: "/app/lib/worker.rb", Line: 12, Function: "perform"}, frames[1])
		assert.Empty(t, log.msgs)
	})

	t.Run("database driver", func(t *testing.T) {
		log := &recorder{}
		err := &oraError{rawError{lines: []string{
			`ORA-06512: at "STORE.LI_LICENSES_PACK", line 1945`,
			"ORA-06512: something went wrong",
		}}}
		frames := r.Parse(err, log)

		require.Len(t, frames, 2)
		assert.Equal(t, backtrace.Frame{Line: 1945, Function: "STORE.LI_LICENSES_PACK"}, frames[0])
		assert.Equal(t, backtrace.Frame{Function: "ORA-06512: something went wrong"}, frames[1])
		require.Len(t, log.msgs, 1)
		assert.Contains(t, log.msgs[0], "ORA-06512: something went wrong")
	})

	t.Run("script bridge", func(t *testing.T) {
		log := &recorder{}
		frames := r.Parse(&rawError{lines: bridgeLines}, log)

		require.Len(t, frames, 3)
		assert.Equal(t, backtrace.Frame{File: "/app/lib/execjs/external_runtime.rb", Line: 39, Function: "exec"}, frames[0])
		assert.Equal(t, backtrace.Frame{File: "(execjs)", Line: 6692, Function: "compile"}, frames[1])
		assert.Equal(t, backtrace.Frame{File: "bootstrap_node.js", Line: 467, Function: ""}, frames[2])
		assert.Empty(t, log.msgs)
	})
}
