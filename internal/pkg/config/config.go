// Package config exposes typed read access to the service configuration.
package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values as durations of the named unit.
type TimeConfig interface {
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of
// various types. Missing keys yield the zero value.
type Config interface {
	io.Closer
	TimeConfig

	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 value. Undecodable values yield nil.
	GetBinary(key string) []byte

	// GetArray reads either a list or a comma separated string. Elements are
	// trimmed and empty elements dropped.
	GetArray(key string) []string

	// GetMap reads "k1:v1,k2:v2".
	GetMap(key string) map[string]string
}
