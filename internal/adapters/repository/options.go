// Package repository holds persistent adapters for the cooldown store.
package repository

import (
	"time"

	"github.com/okian/waiverintel/pkg/logger"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "waiver:cooldown"

// Option applies a configuration option to the RedisStore.
type Option func(*RedisStore)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock replaces the time source used to derive key TTLs.
func WithClock(now func() time.Time) Option {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *RedisStore) {
		s.log = l
	}
}
