// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package lua

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efind-go/efind/internal/pluginhost"
	"github.com/efind-go/efind/pkg/pluginapi"
)

const hasExtScript = `
function registration(ctx, register_fn)
  register_fn({name = "has-ext", version = "1.0.0", description = "checks extension"})
end

function discover(ctx, register_callback_fn)
  register_callback_fn("has_ext", 1, "string")
end

function has_ext(filename, ext)
  if string.find(filename, ext, 1, true) then
    return 1
  end
  return 0
end
`

func writeScript(t *testing.T, dir, script string) string {
	t.Helper()
	path := filepath.Join(dir, "main.lua")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))
	return dir
}

func testManifest() *pluginhost.Manifest {
	return &pluginhost.Manifest{
		Name:      "has-ext",
		Version:   "1.0.0",
		ABI:       ">=1.0.0",
		Type:      pluginhost.TypeLua,
		LuaPlugin: &pluginhost.LuaConfig{Entry: "main.lua"},
	}
}

func TestHost_Load_Success(t *testing.T) {
	dir := writeScript(t, t.TempDir(), hasExtScript)
	host := NewHost()

	reg, cbs, err := host.Load(context.Background(), testManifest(), dir)
	require.NoError(t, err)
	assert.Equal(t, "has-ext", reg.Name)
	require.Len(t, cbs, 1)
	assert.Equal(t, "has_ext", cbs[0].Name)
	assert.Equal(t, 1, cbs[0].Argc)
}

func TestHost_Load_MissingRegistration(t *testing.T) {
	dir := writeScript(t, t.TempDir(), "function discover(ctx, fn) end")
	host := NewHost()

	_, _, err := host.Load(context.Background(), testManifest(), dir)
	assert.ErrorContains(t, err, "registration")
}

func TestHost_Load_MissingDiscover(t *testing.T) {
	dir := writeScript(t, t.TempDir(), `function registration(ctx, fn) fn({name="x", version="1.0.0"}) end`)
	host := NewHost()

	_, _, err := host.Load(context.Background(), testManifest(), dir)
	assert.ErrorContains(t, err, "discover")
}

func TestHost_Load_SyntaxError(t *testing.T) {
	dir := writeScript(t, t.TempDir(), "function registration( this is not lua")
	host := NewHost()

	_, _, err := host.Load(context.Background(), testManifest(), dir)
	assert.Error(t, err)
}

func TestHost_Invoke(t *testing.T) {
	dir := writeScript(t, t.TempDir(), hasExtScript)
	host := NewHost()

	_, _, err := host.Load(context.Background(), testManifest(), dir)
	require.NoError(t, err)

	result, err := host.Invoke(context.Background(), "has-ext", "has_ext", "/tmp/notes.txt", []pluginapi.Arg{{IsString: true, Str: "txt"}})
	require.NoError(t, err)
	assert.Equal(t, int32(1), result)

	result, err = host.Invoke(context.Background(), "has-ext", "has_ext", "/tmp/notes.txt", []pluginapi.Arg{{IsString: true, Str: "md"}})
	require.NoError(t, err)
	assert.Equal(t, int32(0), result)
}

func TestHost_Invoke_UnknownCallback(t *testing.T) {
	dir := writeScript(t, t.TempDir(), hasExtScript)
	host := NewHost()
	_, _, err := host.Load(context.Background(), testManifest(), dir)
	require.NoError(t, err)

	_, err = host.Invoke(context.Background(), "has-ext", "missing_cb", "/tmp/x", nil)
	assert.ErrorContains(t, err, "does not define callback")
}

func TestHost_Invoke_NotLoaded(t *testing.T) {
	host := NewHost()
	_, err := host.Invoke(context.Background(), "has-ext", "has_ext", "/tmp/x", nil)
	assert.ErrorIs(t, err, pluginhost.ErrPluginNotLoaded)
}

func TestHost_Unload(t *testing.T) {
	dir := writeScript(t, t.TempDir(), hasExtScript)
	host := NewHost()
	_, _, err := host.Load(context.Background(), testManifest(), dir)
	require.NoError(t, err)

	require.NoError(t, host.Unload(context.Background(), "has-ext"))
	assert.Empty(t, host.Plugins())
}

func TestHost_Unload_NotLoaded(t *testing.T) {
	host := NewHost()
	err := host.Unload(context.Background(), "has-ext")
	assert.ErrorIs(t, err, pluginhost.ErrPluginNotLoaded)
}
