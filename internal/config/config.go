// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package config loads the two INI files that contribute default CLI
// option values: a global file and a per-user file, merged global-then-
// local, with CLI flags always taking precedence over either. The layering
// itself is done by koanf, mirroring the teacher's own config-precedence
// library; gopkg.in/ini.v1 supplies the actual INI syntax parsing behind a
// small koanf.Parser adapter since spec.md §6 fixes the file format to INI.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"gopkg.in/ini.v1"
)

// SysConfDir is the directory holding the global config file, overridable
// in tests.
var SysConfDir = "/etc"

// General holds the recognized [general] keys from spec.md §6.
type General struct {
	Quote            *bool
	FollowLinks      *bool
	MaxDepth         *int
	RegexType        string
	OrderBy          string
	Printf           string
	ExecIgnoreErrors *bool
}

// Logging holds the recognized [logging] keys.
type Logging struct {
	Verbosity *int
	Color     *bool
}

// Config is the merged result of loading both INI files and any
// explicitly-set CLI flags. Any field left nil/zero was not set anywhere.
type Config struct {
	General General
	Logging Logging
}

// GlobalPath returns the global config file path, "${SYSCONFDIR}/efind/config".
func GlobalPath() string {
	return filepath.Join(SysConfDir, "efind", "config")
}

// LocalPath returns the per-user config file path, "~/.efind/config".
func LocalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".efind", "config")
}

// flagKeys maps a cmd/efind CLI flag name to the koanf key matching the
// [section].key layout of the INI files. Flags absent from this map (expr,
// dir, skip, limit, metrics-addr, version, print, print-extensions,
// print-ignore-list) have no config-file equivalent and are left alone.
var flagKeys = map[string]string{
	"quote":              "general.quote",
	"follow":             "general.follow-links",
	"max-depth":          "general.max-depth",
	"regex-type":         "general.regex-type",
	"order-by":           "general.order-by",
	"printf":             "general.printf",
	"exec-ignore-errors": "general.exec-ignore-errors",
	"log-level":          "logging.verbosity",
	"log-color":          "logging.color",
}

// Load merges the global config file, the local config file, and (if flags
// is non-nil) the caller's parsed flag set, in that precedence order. Each
// koanf.Load call's keys override the previous layer's, so an explicitly-set
// flag always wins, an unset flag never clobbers a file-provided value, and
// the local file wins over the global one. Missing files are not errors;
// only malformed ones are.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for _, path := range []string{GlobalPath(), LocalPath()} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), iniParser{}); err != nil {
			return nil, err
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, err
		}
	}

	return toConfig(k), nil
}

func toConfig(k *koanf.Koanf) *Config {
	cfg := &Config{}

	if k.Exists("general.quote") {
		v := k.Bool("general.quote")
		cfg.General.Quote = &v
	}
	if k.Exists("general.follow-links") {
		v := k.Bool("general.follow-links")
		cfg.General.FollowLinks = &v
	}
	if k.Exists("general.max-depth") {
		v := k.Int("general.max-depth")
		cfg.General.MaxDepth = &v
	}
	cfg.General.RegexType = k.String("general.regex-type")
	cfg.General.OrderBy = k.String("general.order-by")
	cfg.General.Printf = k.String("general.printf")
	if k.Exists("general.exec-ignore-errors") {
		v := k.Bool("general.exec-ignore-errors")
		cfg.General.ExecIgnoreErrors = &v
	}

	if k.Exists("logging.verbosity") {
		v := k.Int("logging.verbosity")
		cfg.Logging.Verbosity = &v
	}
	if k.Exists("logging.color") {
		v := k.Bool("logging.color")
		cfg.Logging.Color = &v
	}

	return cfg
}

// iniParser adapts gopkg.in/ini.v1 to koanf's Parser interface, flattening
// each file into "section.key" -> value entries so koanf.Load can layer it
// with the other config sources.
type iniParser struct{}

func (iniParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	f, err := ini.Load(b)
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{}
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		for _, key := range sec.Keys() {
			out[sec.Name()+"."+key.Name()] = key.Value()
		}
	}
	return out, nil
}

func (iniParser) Marshal(map[string]interface{}) ([]byte, error) {
	return nil, errors.New("config: marshaling back to INI is not supported")
}
