package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Source names where a resolved setting came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceCLI     Source = "cli"
	SourceDefault Source = "default"
)

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// Resolver applies env > CLI > default precedence to settings.
type Resolver struct {
	logger *zap.Logger
	lookup LookupFunc
}

// NewResolver creates a Resolver reading the process environment.
func NewResolver(logger *zap.Logger) Resolver {
	return NewResolverWithLookup(logger, os.LookupEnv)
}

// NewResolverWithLookup creates a Resolver with a custom environment lookup.
func NewResolverWithLookup(logger *zap.Logger, lookup LookupFunc) Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return Resolver{logger: logger, lookup: lookup}
}

func (r Resolver) env(key string) (string, bool) {
	if key == "" || r.lookup == nil {
		return "", false
	}
	return r.lookup(key)
}

func (r Resolver) log() *zap.Logger {
	if r.logger == nil {
		return zap.NewNop()
	}
	return r.logger
}

func (r Resolver) logConflict(setting, envVal, cliVal string) {
	r.log().Warn(
		"config: conflict for "+setting,
		zap.String("env", envVal),
		zap.String("cli", cliVal),
		zap.String("decision", "using env value"),
	)
}

func (r Resolver) logResolved(setting string, source Source) {
	r.log().Debug("config: resolved "+setting, zap.String("source", string(source)))
}

func choose(envSet, cliSet bool) Source {
	switch {
	case envSet:
		return SourceEnv
	case cliSet:
		return SourceCLI
	default:
		return SourceDefault
	}
}

// String resolves a string setting.
func (r Resolver) String(setting, envKey, cliVal string, cliSet bool, defaultVal string) string {
	raw, envSet := r.env(envKey)
	envVal := strings.TrimSpace(raw)
	if envSet && cliSet && envVal != cliVal {
		r.logConflict(setting, envVal, cliVal)
	}

	source := choose(envSet, cliSet)
	r.logResolved(setting, source)
	switch source {
	case SourceEnv:
		return envVal
	case SourceCLI:
		return cliVal
	default:
		return defaultVal
	}
}

// Path resolves a path setting; relative results are joined to base.
func (r Resolver) Path(setting, envKey, cliVal string, cliSet bool, defaultVal, base string) string {
	value := r.String(setting, envKey, cliVal, cliSet, defaultVal)
	if value == "" || filepath.IsAbs(value) || base == "" {
		return value
	}
	return filepath.Join(base, value)
}

// Bool resolves a boolean setting. Env values must parse with strconv.ParseBool.
func (r Resolver) Bool(setting, envKey string, cliVal bool, cliSet bool, defaultVal bool) (bool, error) {
	raw, envSet := r.env(envKey)
	if !envSet {
		r.logResolved(setting, choose(false, cliSet))
		if cliSet {
			return cliVal, nil
		}
		return defaultVal, nil
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("config %s: invalid boolean %q: %w", setting, raw, err)
	}
	if cliSet && parsed != cliVal {
		r.logConflict(setting, raw, strconv.FormatBool(cliVal))
	}
	r.logResolved(setting, SourceEnv)
	return parsed, nil
}

// StringSlice resolves a list setting. Env values are comma-separated.
func (r Resolver) StringSlice(setting, envKey string, cliVal []string, cliSet bool, defaultVal []string) []string {
	raw, envSet := r.env(envKey)
	if envSet {
		parts := sanitizeStrings(strings.Split(raw, ","))
		if cliSet && strings.Join(parts, ",") != strings.Join(sanitizeStrings(cliVal), ",") {
			r.logConflict(setting, raw, strings.Join(cliVal, ","))
		}
		r.logResolved(setting, SourceEnv)
		return parts
	}

	r.logResolved(setting, choose(false, cliSet))
	if cliSet {
		return sanitizeStrings(cliVal)
	}
	return sanitizeStrings(defaultVal)
}

func sanitizeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	clean := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	if len(clean) == 0 {
		return nil
	}
	return clean
}
