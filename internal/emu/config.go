package emu

// Config contains settings that affect emulation behavior, independent of
// any particular frontend (headless runner or the ebiten UI).
type Config struct {
	Trace    bool // log CPU instructions to stderr as they execute
	LimitFPS bool // not read by Machine: StepFrame always runs at full speed
}

// Defaults leaves Config's zero value as-is: every field here already
// defaults to "off", which is the correct behavior for both the headless
// runner and a freshly booted UI session.
func (c *Config) Defaults() {}
