package loader

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultEnvPrefix is the prefix of recognized environment variables.
const DefaultEnvPrefix = "KEYCALC_"

// EnvLoader loads configuration from environment variables. Only mapped
// variables are read; each maps to a dotted section.setting path.
type EnvLoader struct {
	prefix  string
	mapping map[string]envVar
	lookup  func(string) (string, bool)
}

// valueKind is the type a variable's text is converted to.
type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
)

type envVar struct {
	path string
	kind valueKind
}

// NewEnvLoader creates a loader with the default mapping for prefix.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(),
		lookup:  os.LookupEnv,
	}
}

// NewEnvLoaderWithLookup is like NewEnvLoader but reads variables through
// lookup instead of the process environment.
func NewEnvLoaderWithLookup(prefix string, lookup func(string) (string, bool)) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.lookup = lookup
	return l
}

// defaultEnvMapping maps variable suffixes to setting paths.
func defaultEnvMapping() map[string]envVar {
	return map[string]envVar{
		"LOCALE":           {"calculator.locale", kindString},
		"LOCALIZED_DIGITS": {"calculator.localized_digits", kindBool},
		"POLICY":           {"calculator.filter_policy", kindString},
		"FUNCTIONS":        {"calculator.functions", kindString},
		"DELETE_MODE":      {"calculator.delete_mode", kindString},
		"DATA_DIR":         {"paths.data_dir", kindString},
		"HISTORY_FILE":     {"history.file", kindString},
		"MAX_HISTORY":      {"history.max_entries", kindInt},
		"LOG_LEVEL":        {"logging.level", kindString},
		"LOG_FILE":         {"logging.file", kindString},
	}
}

// Mapping returns the variable names the loader reads and their paths.
func (l *EnvLoader) Mapping() map[string]string {
	out := make(map[string]string, len(l.mapping))
	for suffix, v := range l.mapping {
		out[l.prefix+suffix] = v.path
	}
	return out
}

// Load implements Loader. Empty values count as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for suffix, v := range l.mapping {
		name := l.prefix + suffix
		val, ok := l.lookup(name)
		if !ok {
			continue
		}
		parsed, err := parseValue(val, v.kind)
		if err != nil {
			return nil, &EnvError{Name: name, Value: val, Err: err}
		}
		setByPath(config, v.path, parsed)
	}
	if len(config) == 0 {
		return nil, nil
	}
	return config, nil
}

// EnvError is an environment variable whose value has the wrong type.
type EnvError struct {
	Name  string
	Value string
	Err   error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("environment variable %s=%q: %v", e.Name, e.Value, e.Err)
}

func (e *EnvError) Unwrap() error {
	return e.Err
}

func parseValue(s string, kind valueKind) (any, error) {
	switch kind {
	case kindBool:
		switch strings.ToLower(s) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0", "":
			return false, nil
		}
		return nil, strconv.ErrSyntax
	case kindInt:
		return strconv.ParseInt(s, 10, 64)
	default:
		return s, nil
	}
}

// setByPath sets value in data at the dotted path, creating maps on the
// way.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
