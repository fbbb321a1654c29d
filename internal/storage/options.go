package storage

import (
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Options is the flat string configuration handed to a backend factory.
// Values come from config files, env, or flags, so every accessor parses.
type Options map[string]string

// String returns the value for key, or def when it is missing or empty.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok && v != "" {
		return v
	}
	return def
}

// Bool accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok || v == "" {
		return def, nil
	}

	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, &ConfigError{
			Field:   key,
			Value:   v,
			Message: "must be a boolean (true/false, 1/0, yes/no)",
		}
	}
}

// Int returns the value for key parsed as an int.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == "" {
		return def, nil
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ConfigError{Field: key, Value: v, Message: "must be an integer", Cause: err}
	}
	return i, nil
}

// Int64 returns the value for key parsed as an int64.
func (o Options) Int64(key string, def int64) (int64, error) {
	v, ok := o[key]
	if !ok || v == "" {
		return def, nil
	}

	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &ConfigError{Field: key, Value: v, Message: "must be an integer", Cause: err}
	}
	return i, nil
}

// Duration accepts Go duration strings ("5s", "1m30s") or plain integers as seconds.
func (o Options) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := o[key]
	if !ok || v == "" {
		return def, nil
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	return 0, &ConfigError{
		Field:   key,
		Value:   v,
		Message: "must be a duration (e.g., '5s', '1m30s') or integer seconds",
	}
}

var sizeSuffixes = []struct {
	suffix string
	mult   int64
}{
	{"KiB", 1 << 10},
	{"MiB", 1 << 20},
	{"GiB", 1 << 30},
	{"K", 1 << 10},
	{"M", 1 << 20},
	{"G", 1 << 30},
}

// Size parses a byte size such as "4096", "4KiB" or "1M".
func (o Options) Size(key string, def int64) (int64, error) {
	v, ok := o[key]
	if !ok || v == "" {
		return def, nil
	}

	num, mult := v, int64(1)
	for _, s := range sizeSuffixes {
		if strings.HasSuffix(v, s.suffix) {
			num, mult = strings.TrimSpace(strings.TrimSuffix(v, s.suffix)), s.mult
			break
		}
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n < 0 {
		return 0, &ConfigError{Field: key, Value: v, Message: "must be a byte size (e.g., '4096', '4KiB')", Cause: err}
	}
	return n * mult, nil
}

// List splits a comma separated value, dropping empty elements.
func (o Options) List(key string, def []string) []string {
	v, ok := o[key]
	if !ok || v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// Path returns the value for key passed through ExpandPath.
func (o Options) Path(key, def string) string {
	v := o.String(key, def)
	if v == "" || v == ":memory:" {
		return v
	}
	return ExpandPath(v)
}

// ExpandPath expands ~ to the user's home directory and cleans the path.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return filepath.Clean(path)
}

// Merge returns a new map with src layered over dst.
func Merge(dst, src Options) Options {
	result := make(Options, len(dst)+len(src))
	maps.Copy(result, dst)
	maps.Copy(result, src)
	return result
}
