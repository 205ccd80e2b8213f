package backtrace

import (
	"fmt"
	"regexp"
)

// Family identifies the runtime that produced a backtrace, and with it the
// shape its lines are expected to have.
type Family int

const (
	// Native is the host runtime's own format. It is also the fallback every
	// other family is retried against.
	Native Family = iota
	// ManagedVM covers JVM style frames: "Class.method(File.java:NN)".
	ManagedVM
	// DatabaseDriver covers Oracle PL/SQL frames mixed with native ones.
	DatabaseDriver
	// ScriptBridge covers V8/Node style frames from an embedded JS engine.
	ScriptBridge
)

var familyNames = [...]string{
	Native:         "native",
	ManagedVM:      "managed-vm",
	DatabaseDriver: "database-driver",
	ScriptBridge:   "script-bridge",
}

func (f Family) String() string {
	if f.valid() {
		return familyNames[f]
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

func (f Family) valid() bool {
	return f >= Native && int(f) < len(familyNames)
}

func (f Family) pattern() *regexp.Regexp {
	switch f {
	case ManagedVM:
		return managedVMPattern
	case DatabaseDriver:
		return databaseDriverPattern
	case ScriptBridge:
		return scriptBridgePattern
	default:
		return nativePattern
	}
}
