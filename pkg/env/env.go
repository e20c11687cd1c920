package env

import "os"

// Get reads key from the process environment. Unset and empty values both
// yield the fallback.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
