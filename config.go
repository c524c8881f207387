package ueberdb

// resolveSettings computes the effective, frozen Settings for a DB: the
// built-in defaults, overridden field-by-field by the driver's declared
// preferences, overridden again field-by-field by whatever the caller
// explicitly supplied (spec.md §4.1: "the driver MAY declare default
// settings that override the built-in defaults; caller-supplied
// settings override the driver's").
//
// Every Settings field is a pointer (see Settings), so each layer can
// set a field explicitly to its zero value -- a driver declaring
// MemorySettings, or a caller forcing write-through via
// WithSettings(Settings{WriteInterval: Ptr(time.Duration(0))}) -- without that zero
// being mistaken for "this layer has no opinion" and silently falling
// through to the layer below. base is DefaultSettings, which sets every
// field, so the result always has every field non-nil.
func resolveSettings(base, driverDefaults, caller Settings) Settings {
	return base.merge(driverDefaults).merge(caller)
}

// validate reports whether s is usable.
func (s Settings) validate() error {
	if s.Cache != nil && *s.Cache < 0 {
		return ErrInvalidSettings
	}
	if s.WriteInterval != nil && *s.WriteInterval < 0 {
		return ErrInvalidSettings
	}
	return nil
}
