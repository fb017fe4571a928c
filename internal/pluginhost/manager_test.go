// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package pluginhost_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efind-go/efind/internal/pluginhost"
	"github.com/efind-go/efind/internal/postfilter"
	"github.com/efind-go/efind/pkg/pluginapi"
)

// fakeHost is a pluginhost.Host test double that never spawns a process.
type fakeHost struct {
	registration pluginapi.Registration
	callbacks    []pluginapi.CallbackSig
	loadErr      error
	invokeResult int32
	invokeErr    error
	loadedNames  []string
}

func (h *fakeHost) Load(_ context.Context, manifest *pluginhost.Manifest, _ string) (pluginapi.Registration, []pluginapi.CallbackSig, error) {
	if h.loadErr != nil {
		return pluginapi.Registration{}, nil, h.loadErr
	}
	h.loadedNames = append(h.loadedNames, manifest.Name)
	return h.registration, h.callbacks, nil
}

func (h *fakeHost) Unload(_ context.Context, _ string) error { return nil }

func (h *fakeHost) Invoke(_ context.Context, _, _, _ string, _ []pluginapi.Arg) (int32, error) {
	return h.invokeResult, h.invokeErr
}

func (h *fakeHost) Plugins() []string { return h.loadedNames }

func (h *fakeHost) Close(_ context.Context) error { return nil }

func writeManifest(t *testing.T, dir, name, yaml string) {
	t.Helper()
	pluginDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "plugin.yaml"), []byte(yaml), 0o644))
}

func TestManager_Discover_MissingDir(t *testing.T) {
	m := pluginhost.NewManager(filepath.Join(t.TempDir(), "does-not-exist"))
	discovered, err := m.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, discovered)
}

func TestManager_Discover_SkipsInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "bad-plugin", "not: [valid")
	writeManifest(t, dir, "good-plugin", validManifestYAML("lua"))

	m := pluginhost.NewManager(dir)
	discovered, err := m.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, discovered, 1)
	assert.Equal(t, "has-ext", discovered[0].Manifest.Name)
}

func TestManager_LoadAll_DispatchesToOwningHost(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "has-ext", validManifestYAML("lua"))

	lua := &fakeHost{
		registration: pluginapi.Registration{Name: "has-ext", Version: "1.0.0"},
		callbacks:    []pluginapi.CallbackSig{{Name: "has_ext", Argc: 1, Types: []pluginapi.ArgType{pluginapi.TypeString}}},
		invokeResult: 1,
	}
	m := pluginhost.NewManager(dir, pluginhost.WithLuaHost(lua))

	require.NoError(t, m.LoadAll(context.Background()))
	assert.Equal(t, []string{"has-ext"}, m.Plugins())

	result, status, err := m.Dispatch(context.Background(), "has_ext", "/tmp/x.txt", []postfilter.Arg{{IsString: true, Str: "txt"}})
	require.NoError(t, err)
	assert.Equal(t, postfilter.DispatchOK, status)
	assert.Equal(t, int32(1), result)
}

func TestManager_Dispatch_NotFound(t *testing.T) {
	m := pluginhost.NewManager(t.TempDir())
	_, status, err := m.Dispatch(context.Background(), "missing", "/tmp/x.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, postfilter.DispatchNotFound, status)
}

func TestManager_Dispatch_InvalidSignature(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "has-ext", validManifestYAML("lua"))

	lua := &fakeHost{
		registration: pluginapi.Registration{Name: "has-ext", Version: "1.0.0"},
		callbacks:    []pluginapi.CallbackSig{{Name: "has_ext", Argc: 1, Types: []pluginapi.ArgType{pluginapi.TypeString}}},
	}
	m := pluginhost.NewManager(dir, pluginhost.WithLuaHost(lua))
	require.NoError(t, m.LoadAll(context.Background()))

	_, status, err := m.Dispatch(context.Background(), "has_ext", "/tmp/x.txt", []postfilter.Arg{{IsString: false, Int: 1}})
	require.NoError(t, err)
	assert.Equal(t, postfilter.DispatchInvalidSignature, status)
}

func TestManager_LoadAll_SkipsWhenNoHostConfigured(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "has-ext", validManifestYAML("binary"))

	m := pluginhost.NewManager(dir)
	require.NoError(t, m.LoadAll(context.Background()))
	assert.Empty(t, m.Plugins())
}

func TestManager_Callbacks_SortedByName(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "has-ext", validManifestYAML("lua"))

	lua := &fakeHost{
		registration: pluginapi.Registration{Name: "has-ext"},
		callbacks: []pluginapi.CallbackSig{
			{Name: "zz_cb", Argc: 0},
			{Name: "aa_cb", Argc: 0},
		},
	}
	m := pluginhost.NewManager(dir, pluginhost.WithLuaHost(lua))
	require.NoError(t, m.LoadAll(context.Background()))

	cbs := m.Callbacks()
	require.Len(t, cbs, 2)
	assert.Equal(t, "aa_cb", cbs[0].Sig.Name)
	assert.Equal(t, "zz_cb", cbs[1].Sig.Name)
}

func TestManager_Close_ClearsState(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "has-ext", validManifestYAML("lua"))

	lua := &fakeHost{registration: pluginapi.Registration{Name: "has-ext"}}
	m := pluginhost.NewManager(dir, pluginhost.WithLuaHost(lua))
	require.NoError(t, m.LoadAll(context.Background()))
	require.NoError(t, m.Close(context.Background()))

	assert.Empty(t, m.Plugins())
	assert.Empty(t, m.Callbacks())
}
