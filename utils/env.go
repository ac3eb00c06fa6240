// utils/env.go - Environment variable helpers
package utils

import (
	"os"
	"strconv"
)

// Getenv returns the value of key, or defaultValue when unset/empty.
func Getenv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetenvInt returns the integer value of key, or defaultValue when unset or
// not a valid integer.
func GetenvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetenvBool returns the boolean value of key ("true"/"false"), or
// defaultValue when unset or unparsable.
func GetenvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
