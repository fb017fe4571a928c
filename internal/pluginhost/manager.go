// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package pluginhost

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/efind-go/efind/internal/postfilter"
	"github.com/efind-go/efind/pkg/pluginapi"
)

// DiscoveredPlugin pairs a parsed manifest with the directory it was found
// in.
type DiscoveredPlugin struct {
	Manifest *Manifest
	Dir      string
}

// loadedPlugin tracks which Host backend owns a plugin and what it
// announced at discover time.
type loadedPlugin struct {
	manifest     *Manifest
	host         Host
	registration pluginapi.Registration
}

// Callback is one discovered callback, annotated with the plugin that
// declared it, for --print-extensions.
type Callback struct {
	Plugin string
	Sig    pluginapi.CallbackSig
}

// Manager discovers and loads plugins from pluginsDir, and fans post-filter
// Func calls out to whichever Host backend (binary or Lua) declared the
// callback. Manager implements postfilter.Dispatcher.
type Manager struct {
	pluginsDir string
	binHost    Host
	luaHost    Host

	mu        sync.RWMutex
	loaded    map[string]*loadedPlugin
	callbacks map[string]Callback
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithBinaryHost sets the Host backing `type: binary` plugins.
func WithBinaryHost(h Host) ManagerOption {
	return func(m *Manager) { m.binHost = h }
}

// WithLuaHost sets the Host backing `type: lua` plugins.
func WithLuaHost(h Host) ManagerOption {
	return func(m *Manager) { m.luaHost = h }
}

// NewManager creates a plugin manager rooted at pluginsDir (the resolved
// EFIND_LIBDIR or xdg.PluginDir() default).
func NewManager(pluginsDir string, opts ...ManagerOption) *Manager {
	m := &Manager{
		pluginsDir: pluginsDir,
		loaded:     make(map[string]*loadedPlugin),
		callbacks:  make(map[string]Callback),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Discover finds all valid plugins under pluginsDir. Invalid plugins are
// logged and skipped; a missing pluginsDir is not an error.
func (m *Manager) Discover(_ context.Context) ([]*DiscoveredPlugin, error) {
	entries, err := os.ReadDir(m.pluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read plugins directory: %w", err)
	}

	var plugins []*DiscoveredPlugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginDir := filepath.Join(m.pluginsDir, entry.Name())
		manifestPath := filepath.Join(pluginDir, "plugin.yaml")

		data, err := os.ReadFile(manifestPath) //nolint:gosec // path built from ReadDir entries under pluginsDir
		if err != nil {
			slog.Warn("skipping plugin without manifest", "dir", entry.Name(), "error", err)
			continue
		}

		manifest, err := ParseManifest(data)
		if err != nil {
			slog.Warn("skipping plugin with invalid manifest", "dir", entry.Name(), "error", err)
			continue
		}

		plugins = append(plugins, &DiscoveredPlugin{Manifest: manifest, Dir: pluginDir})
	}

	return plugins, nil
}

// LoadAll discovers and loads every plugin under pluginsDir. Individual
// load failures are logged as warnings and skipped (graceful degradation),
// so one broken plugin never prevents a search from running.
func (m *Manager) LoadAll(ctx context.Context) error {
	discovered, err := m.Discover(ctx)
	if err != nil {
		return err
	}

	for _, dp := range discovered {
		if err := m.loadPlugin(ctx, dp); err != nil {
			slog.Warn("failed to load plugin", "plugin", dp.Manifest.Name, "error", err)
		}
	}
	return nil
}

func (m *Manager) loadPlugin(ctx context.Context, dp *DiscoveredPlugin) error {
	var host Host
	switch dp.Manifest.Type {
	case TypeLua:
		host = m.luaHost
	case TypeBinary:
		host = m.binHost
	default:
		return fmt.Errorf("unknown plugin type %q", dp.Manifest.Type)
	}
	if host == nil {
		slog.Warn("no host configured for plugin type, skipping", "plugin", dp.Manifest.Name, "type", dp.Manifest.Type)
		return nil
	}

	registration, callbacks, err := host.Load(ctx, dp.Manifest, dp.Dir)
	if err != nil {
		return fmt.Errorf("load plugin %s: %w", dp.Manifest.Name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.loaded[dp.Manifest.Name] = &loadedPlugin{manifest: dp.Manifest, host: host, registration: registration}
	for _, sig := range callbacks {
		if existing, ok := m.callbacks[sig.Name]; ok {
			slog.Warn("callback name already registered by another plugin, keeping first",
				"callback", sig.Name, "plugin", dp.Manifest.Name, "owner", existing.Plugin)
			continue
		}
		m.callbacks[sig.Name] = Callback{Plugin: dp.Manifest.Name, Sig: sig}
	}

	slog.Info("loaded plugin", "plugin", dp.Manifest.Name, "type", dp.Manifest.Type, "version", dp.Manifest.Version)
	return nil
}

// Dispatch implements postfilter.Dispatcher: look up name among the
// discovered callbacks, type-check args against its declared signature,
// and invoke it on the owning Host.
func (m *Manager) Dispatch(ctx context.Context, name, filename string, args []postfilter.Arg) (int32, postfilter.DispatchStatus, error) {
	m.mu.RLock()
	cb, ok := m.callbacks[name]
	var host Host
	if ok {
		host = m.loaded[cb.Plugin].host
	}
	m.mu.RUnlock()

	if !ok {
		return 0, postfilter.DispatchNotFound, nil
	}
	if !signatureMatches(cb.Sig, args) {
		return 0, postfilter.DispatchInvalidSignature, nil
	}

	result, err := host.Invoke(ctx, cb.Plugin, name, filename, toPluginArgs(args))
	if err != nil {
		return 0, postfilter.DispatchOK, fmt.Errorf("invoke %s: %w", name, err)
	}
	return result, postfilter.DispatchOK, nil
}

func signatureMatches(sig pluginapi.CallbackSig, args []postfilter.Arg) bool {
	if sig.Argc != len(args) {
		return false
	}
	for i, a := range args {
		wantString := sig.Types[i] == pluginapi.TypeString
		if a.IsString != wantString {
			return false
		}
	}
	return true
}

func toPluginArgs(args []postfilter.Arg) []pluginapi.Arg {
	out := make([]pluginapi.Arg, len(args))
	for i, a := range args {
		out[i] = pluginapi.Arg{IsString: a.IsString, Int: a.Int, Str: a.Str}
	}
	return out
}

// Callbacks returns every discovered callback, sorted by name, for
// --print-extensions.
func (m *Manager) Callbacks() []Callback {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Callback, 0, len(m.callbacks))
	for _, cb := range m.callbacks {
		out = append(out, cb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sig.Name < out[j].Sig.Name })
	return out
}

// Plugins returns the names of all loaded plugins, sorted.
func (m *Manager) Plugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close shuts down both hosts and every plugin they loaded.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.loaded = make(map[string]*loadedPlugin)
	m.callbacks = make(map[string]Callback)
	m.mu.Unlock()

	var firstErr error
	for _, h := range []Host{m.binHost, m.luaHost} {
		if h == nil {
			continue
		}
		if err := h.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ postfilter.Dispatcher = (*Manager)(nil)
