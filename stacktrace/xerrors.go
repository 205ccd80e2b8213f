package stacktrace

import (
	"github.com/yext/glog"
	"golang.org/x/xerrors"
)

// XErrorLines returns the frames xerrors (or yerrors) recorded when err was
// created, as native backtrace lines. Wrapped errors are not visited.
func XErrorLines(err error) []string {
	f, ok := err.(xerrors.Formatter)
	if !ok {
		return nil
	}
	p := &framePrinter{}
	f.FormatError(p)
	return p.lines
}

// framePrinter implements xerrors.Printer and keeps only the frames.
//
// Frames are the only thing printed as detail, as an alternating sequence of:
//
//	Printf("%s\n    ", []interface {}{"package.FuncName"})
//	Printf("%s:%d\n", []interface {}{"/absolute/path/to/file.go", 47})
type framePrinter struct {
	detail bool
	fn     string
	lines  []string
}

func (p *framePrinter) Print(args ...interface{}) {}

func (p *framePrinter) Printf(format string, args ...interface{}) {
	if !p.detail {
		return
	}
	switch len(args) {
	case 1:
		if fn, ok := args[0].(string); ok {
			p.fn = fn
		}
	case 2:
		file, ok1 := args[0].(string)
		line, ok2 := args[1].(int)
		if !ok1 || !ok2 {
			glog.Warningf("unexpected: Printf(%q, %#v)", format, args)
			return
		}
		p.lines = append(p.lines, nativeLine(file, line, p.fn))
		p.fn = ""
	}
}

func (p *framePrinter) Detail() bool {
	p.detail = true
	return true
}
