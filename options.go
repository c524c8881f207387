package ueberdb

// Option configures a DB at construction time. Settings become immutable
// once New returns (spec.md §3: "Settings (immutable after
// construction)").
type Option func(*DB)

// WithSettings overrides the built-in/driver-declared defaults with the
// caller's explicit choices, field by field. A nil field in s leaves
// the layer below untouched; a non-nil field wins even if it points at
// the zero value (e.g. Ptr(0)), so a caller can force write-through or
// disable the read cache over a non-zero default. See Settings.merge.
func WithSettings(s Settings) Option {
	return func(db *DB) {
		db.callerSettings = s
	}
}

// WithErrorHandler installs the function invoked when a Set/Remove is
// issued with a nil callback and the eventual flush (or synchronous
// write-through) fails. The default handler is a no-op; without a
// caller-supplied handler, such errors are otherwise silently dropped
// once dispatched through the empty default callback (spec.md §7's
// recommendation: log, don't panic).
func WithErrorHandler(h func(error)) Option {
	return func(db *DB) {
		db.onUncaughtError = h
	}
}
