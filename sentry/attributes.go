package sentry

// Values that can be passed to glog alongside an error to route and group
// the resulting Sentry event.

type altDsn string

// AltDsn sends the event to the client of another DSN given to CaptureErrors.
func AltDsn(dsn string) any {
	return altDsn(dsn)
}

type fingerprint []string

// Fingerprint overrides Sentry's grouping for the event.
// See: https://docs.sentry.io/learn/rollups/#customize-grouping-with-fingerprints
func Fingerprint(print ...string) any {
	return fingerprint(print)
}
