package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/launchbynttdata/launch-propane/internal/config"
)

// flagBase ties a pflag to the setting name and env var used for precedence.
type flagBase struct {
	fs      *pflag.FlagSet
	setting string
	name    string
	envKey  string
}

func (b flagBase) changed() bool {
	if b.fs == nil || b.name == "" {
		return false
	}
	return b.fs.Changed(b.name)
}

func describeUsage(usage, envKey string) string {
	trimmed := strings.TrimSpace(usage)
	if envKey == "" {
		return trimmed
	}
	if trimmed == "" {
		return fmt.Sprintf("env: %s", envKey)
	}
	return fmt.Sprintf("%s (env: %s)", trimmed, envKey)
}

type stringFlag struct {
	base       flagBase
	defaultVal string
	value      string
}

func bindStringFlag(fs *pflag.FlagSet, name, short, envKey, defaultVal, usage string) *stringFlag {
	f := &stringFlag{
		base:       flagBase{fs: fs, setting: name, name: name, envKey: envKey},
		defaultVal: defaultVal,
		value:      defaultVal,
	}
	if fs == nil {
		return f
	}
	fs.StringVarP(&f.value, name, short, defaultVal, describeUsage(usage, envKey))
	return f
}

func (f *stringFlag) Value(resolver config.Resolver) string {
	return strings.TrimSpace(resolver.String(f.base.setting, f.base.envKey, strings.TrimSpace(f.value), f.base.changed(), f.defaultVal))
}

// Path resolves the flag as a path relative to base.
func (f *stringFlag) Path(resolver config.Resolver, base string) string {
	return resolver.Path(f.base.setting, f.base.envKey, strings.TrimSpace(f.value), f.base.changed(), f.defaultVal, base)
}

type boolFlag struct {
	base       flagBase
	defaultVal bool
	value      bool
}

func bindBoolFlag(fs *pflag.FlagSet, name, envKey string, defaultVal bool, usage string) *boolFlag {
	f := &boolFlag{
		base:       flagBase{fs: fs, setting: name, name: name, envKey: envKey},
		defaultVal: defaultVal,
		value:      defaultVal,
	}
	if fs == nil {
		return f
	}
	fs.BoolVar(&f.value, name, defaultVal, describeUsage(usage, envKey))
	return f
}

func (f *boolFlag) Value(resolver config.Resolver) (bool, error) {
	return resolver.Bool(f.base.setting, f.base.envKey, f.value, f.base.changed(), f.defaultVal)
}

type stringSliceFlag struct {
	base       flagBase
	defaultVal []string
	value      []string
}

func bindStringSliceFlag(fs *pflag.FlagSet, name, envKey string, defaultVal []string, usage string) *stringSliceFlag {
	f := &stringSliceFlag{
		base:       flagBase{fs: fs, setting: name, name: name, envKey: envKey},
		defaultVal: append([]string(nil), defaultVal...),
		value:      append([]string(nil), defaultVal...),
	}
	if fs == nil {
		return f
	}
	fs.StringSliceVar(&f.value, name, defaultVal, describeUsage(usage, envKey))
	return f
}

func (f *stringSliceFlag) Value(resolver config.Resolver) []string {
	return resolver.StringSlice(f.base.setting, f.base.envKey, f.value, f.base.changed(), f.defaultVal)
}
