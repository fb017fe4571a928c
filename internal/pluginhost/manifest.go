// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package pluginhost discovers, loads and dispatches efind's post-filter
// plugin modules: compiled binaries hosted over go-plugin's net/rpc
// transport, and Lua scripts hosted in-process via gopher-lua. Re-architects
// spec.md §6's dynamically-loaded-shared-library ABI as a small
// load/invoke/unload Host interface with two concrete backends, per
// spec.md §10's REDESIGN FLAGS.
package pluginhost

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Type identifies which Host backend loads a plugin.
type Type string

// Plugin types supported by the system.
const (
	TypeLua    Type = "lua"
	TypeBinary Type = "binary"
)

// Manifest represents a plugin.yaml file, announcing a plugin's runtime
// type and the ABI version range it was built against.
type Manifest struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	ABI          string        `yaml:"abi"`
	Type         Type          `yaml:"type"`
	LuaPlugin    *LuaConfig    `yaml:"lua-plugin,omitempty"`
	BinaryPlugin *BinaryConfig `yaml:"binary-plugin,omitempty"`
}

// LuaConfig holds Lua-specific manifest fields.
type LuaConfig struct {
	Entry string `yaml:"entry"`
}

// BinaryConfig holds binary-plugin manifest fields.
type BinaryConfig struct {
	Executable string `yaml:"executable"`
}

// ABIVersion is the callback ABI efind's host implements: the
// (filename, argc, argv) -> i32 invocation contract of spec.md §6. A plugin
// declares the range of ABI versions it supports via its manifest's `abi`
// field, checked as a semver constraint against this value.
const ABIVersion = "1.0.0"

const maxNameLength = 64

var namePattern = regexp.MustCompile(`^[a-z](-?[a-z0-9])*$`)

// ParseManifest parses and validates a plugin.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest field constraints and the declared ABI
// constraint against ABIVersion.
func (m *Manifest) Validate() error {
	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return fmt.Errorf("name %q must start with a-z, contain only a-z, 0-9, single hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return fmt.Errorf("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.Version == "" {
		return fmt.Errorf("version is required")
	}
	if _, err := semver.StrictNewVersion(m.Version); err != nil {
		return fmt.Errorf("version %q must be valid semver (e.g., 1.0.0): %w", m.Version, err)
	}

	if err := m.checkABI(); err != nil {
		return err
	}

	switch m.Type {
	case TypeLua:
		if m.LuaPlugin == nil {
			return fmt.Errorf("lua-plugin is required when type is lua")
		}
		if m.LuaPlugin.Entry == "" {
			return fmt.Errorf("lua-plugin.entry is required")
		}
	case TypeBinary:
		if m.BinaryPlugin == nil {
			return fmt.Errorf("binary-plugin is required when type is binary")
		}
		if m.BinaryPlugin.Executable == "" {
			return fmt.Errorf("binary-plugin.executable is required")
		}
	default:
		return fmt.Errorf("type must be 'lua' or 'binary', got %q", m.Type)
	}

	return nil
}

func (m *Manifest) checkABI() error {
	if m.ABI == "" {
		return fmt.Errorf("abi constraint is required (e.g., \">=1.0.0 <2.0.0\")")
	}
	constraint, err := semver.NewConstraint(m.ABI)
	if err != nil {
		return fmt.Errorf("abi constraint %q is not valid semver range: %w", m.ABI, err)
	}
	abi, err := semver.StrictNewVersion(ABIVersion)
	if err != nil {
		return fmt.Errorf("internal ABI version %q is not valid semver: %w", ABIVersion, err)
	}
	if !constraint.Check(abi) {
		return fmt.Errorf("plugin requires ABI %q, host implements %s", m.ABI, ABIVersion)
	}
	return nil
}
