package pkgconfig

import "time"

// Config is the read-only view of configuration used by the application.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetString(key string) string
	GetDuration(key string) time.Duration
	GetArray(key string) []string
	GetMap(key string) map[string]string
	IsSet(key string) bool
	Unmarshal(key string, out any) error
	Close() error
}
