package flagx

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvString sets *dst from the named variable when it is set and non-empty.
func EnvString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

// EnvInt sets *dst when the variable holds a valid integer. Invalid values are ignored.
func EnvInt(dst *int, name string) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// EnvInt64 is EnvInt for int64 values.
func EnvInt64(dst *int64, name string) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

// EnvDuration sets *dst when the variable parses with time.ParseDuration.
func EnvDuration(dst *time.Duration, name string) {
	if v, ok := lookup(name); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
