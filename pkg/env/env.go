package env

import "os"

// Get returns the value of the given environment variable or a fallback.
// Platform-injected variables (PORT, LOG_FORMAT) are read through here rather
// than through the MAISON_ config surface.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
