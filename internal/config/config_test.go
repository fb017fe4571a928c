// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efind-go/efind/internal/config"
)

func TestLoad_LocalOverridesGlobal(t *testing.T) {
	sysconf := t.TempDir()
	config.SysConfDir = sysconf
	t.Cleanup(func() { config.SysConfDir = "/etc" })

	globalDir := filepath.Join(sysconf, "efind")
	require.NoError(t, os.MkdirAll(globalDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config"),
		[]byte("[general]\nmax-depth = 3\norder-by = s\n"), 0o644))

	home := t.TempDir()
	t.Setenv("HOME", home)
	localDir := filepath.Join(home, ".efind")
	require.NoError(t, os.MkdirAll(localDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "config"),
		[]byte("[general]\nmax-depth = 5\n[logging]\nverbosity = 2\ncolor = true\n"), 0o644))

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	require.NotNil(t, cfg.General.MaxDepth)
	assert.Equal(t, 5, *cfg.General.MaxDepth) // local overrides global
	assert.Equal(t, "s", cfg.General.OrderBy) // only set globally, survives the merge

	require.NotNil(t, cfg.Logging.Verbosity)
	assert.Equal(t, 2, *cfg.Logging.Verbosity)
	require.NotNil(t, cfg.Logging.Color)
	assert.True(t, *cfg.Logging.Color)
}

func TestLoad_MissingFilesIsNotAnError(t *testing.T) {
	config.SysConfDir = t.TempDir()
	t.Cleanup(func() { config.SysConfDir = "/etc" })
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Nil(t, cfg.General.MaxDepth)
}

func TestLoad_IgnoresUnrecognizedKeys(t *testing.T) {
	sysconf := t.TempDir()
	config.SysConfDir = sysconf
	t.Cleanup(func() { config.SysConfDir = "/etc" })
	t.Setenv("HOME", t.TempDir())

	globalDir := filepath.Join(sysconf, "efind")
	require.NoError(t, os.MkdirAll(globalDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config"),
		[]byte("[general]\nbogus-key = true\n"), 0o644))

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Nil(t, cfg.General.MaxDepth)
}

func TestLoad_ExplicitFlagWinsOverFile(t *testing.T) {
	sysconf := t.TempDir()
	config.SysConfDir = sysconf
	t.Cleanup(func() { config.SysConfDir = "/etc" })
	t.Setenv("HOME", t.TempDir())

	globalDir := filepath.Join(sysconf, "efind")
	require.NoError(t, os.MkdirAll(globalDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config"),
		[]byte("[general]\nfollow-links = true\n"), 0o644))

	flags := pflag.NewFlagSet("efind", pflag.ContinueOnError)
	flags.Bool("follow", false, "")
	require.NoError(t, flags.Parse([]string{"--follow=false"}))

	cfg, err := config.Load(flags)
	require.NoError(t, err)
	require.NotNil(t, cfg.General.FollowLinks)
	assert.False(t, *cfg.General.FollowLinks, "an explicitly-set flag must win over the file value")
}

func TestLoad_UnsetFlagFallsBackToFile(t *testing.T) {
	sysconf := t.TempDir()
	config.SysConfDir = sysconf
	t.Cleanup(func() { config.SysConfDir = "/etc" })
	t.Setenv("HOME", t.TempDir())

	globalDir := filepath.Join(sysconf, "efind")
	require.NoError(t, os.MkdirAll(globalDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config"),
		[]byte("[general]\nfollow-links = true\n"), 0o644))

	flags := pflag.NewFlagSet("efind", pflag.ContinueOnError)
	flags.Bool("follow", false, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := config.Load(flags)
	require.NoError(t, err)
	require.NotNil(t, cfg.General.FollowLinks)
	assert.True(t, *cfg.General.FollowLinks, "an unset flag must not shadow the file value")
}
