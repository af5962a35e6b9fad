// Package env reads raw process environment values for the few settings
// needed before config parsing runs.
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of the given variable or a fallback.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
