package backtrace

import "regexp"

// nativeShape matches "./spec/notice_spec.rb:43:in `block (3 levels) in <top (required)>'"
// as well as "from foo.rb:1", "foo.go:12:in main.main" and "foo.rb:in 'Foo#bar'".
const nativeShape = `\s*(?:from\s)?` +
	`(?P<file>.+?)` +
	`:(?P<line>\d+)?` +
	`(?::?in\s(?:[` + "`" + `'](?P<function>.*)'|(?P<function>.*)))?`

var (
	nativePattern = anchored(nativeShape)

	// "org.jruby.ast.NewlineNode.interpret(NewlineNode.java:105)" and
	// "RUBY.each(uri:classloader:/META-INF/jruby.home/lib/ruby/stdlib/set.rb:232)".
	managedVMPattern = anchored(
		`(?P<function>.+)\(` +
			`(?:(?P<file>uri:classloader:/.+|uri_3a_classloader_3a_.+):` +
			`|(?P<file>[^:]+):?)` +
			`(?P<line>\d+)?\)`)

	// `ORA-06512: at "STORE.LI_LICENSES_PACK", line 1945`
	databaseDriverPattern = anchored(
		`ORA-\d{5}:\sat\s(?:"(?P<function>.+)",\s)?line\s(?P<line>\d+)` +
			`|` + nativeShape)

	// "compile ((execjs):6692:19)" and "bootstrap_node.js:467:3".
	scriptBridgePattern = anchored(
		`(?P<function>.+)\s\((?P<file>.+):(?P<line>\d+):\d+\)` +
			`|(?P<file>.+):(?P<line>\d+):\d+(?P<function>)` +
			`|` + nativeShape)

	// Only used to sniff bridge frames, never to extract them.
	simplifiedBridgePattern = regexp.MustCompile(`^.+ \(.+:\d+:\d+\)$`)
)

func anchored(expr string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + expr + `)$`)
}
