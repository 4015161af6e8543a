package store

import "scanhub/internal/platform/logger"

// Option mutates a Store during Open
type Option func(*Store) error

// WithLogger attaches a parent logger; subclients derive named loggers from it
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}
