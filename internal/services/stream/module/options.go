package module

import "scanhub/internal/platform/config"

// Options holds configuration settings for the stream module
type Options struct {
	// Buffer is the per listener frame buffer before it is considered slow
	Buffer int
}

// FromConfig reads CORE_STREAM_* values from process config
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("CORE_STREAM_")
	return Options{
		Buffer: sc.MayInt("BUFFER", 16),
	}
}
