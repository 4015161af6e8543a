package module

import (
	"time"

	"scanhub/internal/platform/config"
)

// Options holds configuration settings for the scan module
type Options struct {
	RequestTimeout time.Duration
}

// FromConfig reads CORE_SCAN_* values from process config
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("CORE_SCAN_")
	return Options{
		RequestTimeout: sc.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}
