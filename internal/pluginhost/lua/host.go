// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package lua

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/efind-go/efind/internal/pluginhost"
	"github.com/efind-go/efind/pkg/pluginapi"
)

type luaPlugin struct {
	manifest     *pluginhost.Manifest
	code         string
	registration pluginapi.Registration
	callbacks    []pluginapi.CallbackSig
}

// Host manages Lua-scripted callback modules. Each module exposes a
// registration(ctx, register_fn) function and a discover(ctx,
// register_callback_fn) function, called once at Load to announce the
// module and its callbacks per spec.md §6. Callbacks are then invoked as
// plain Lua functions of that name, found as globals in the module's code.
type Host struct {
	factory *StateFactory
	plugins map[string]*luaPlugin
	mu      sync.RWMutex
	closed  bool
}

// NewHost creates a Lua plugin host.
func NewHost() *Host {
	return &Host{
		factory: NewStateFactory(),
		plugins: make(map[string]*luaPlugin),
	}
}

// Load reads, validates, and runs the registration/discover handshake for a
// Lua plugin module.
func (h *Host) Load(ctx context.Context, manifest *pluginhost.Manifest, dir string) (pluginapi.Registration, []pluginapi.CallbackSig, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return pluginapi.Registration{}, nil, pluginhost.ErrHostClosed
	}
	if _, ok := h.plugins[manifest.Name]; ok {
		return pluginapi.Registration{}, nil, fmt.Errorf("%w: %s", pluginhost.ErrPluginAlreadyLoaded, manifest.Name)
	}
	if manifest.LuaPlugin == nil {
		return pluginapi.Registration{}, nil, fmt.Errorf("plugin %s is not a lua plugin", manifest.Name)
	}

	entryPath := filepath.Join(dir, manifest.LuaPlugin.Entry)
	code, err := os.ReadFile(filepath.Clean(entryPath))
	if err != nil {
		return pluginapi.Registration{}, nil, fmt.Errorf("read entry %s: %w", entryPath, err)
	}

	L, err := h.factory.NewState(ctx)
	if err != nil {
		return pluginapi.Registration{}, nil, fmt.Errorf("create state for %s: %w", manifest.Name, err)
	}
	defer L.Close()

	if err := L.DoString(string(code)); err != nil {
		return pluginapi.Registration{}, nil, fmt.Errorf("load %s: %w", manifest.Name, err)
	}

	registration, err := runRegistration(L, manifest.Name)
	if err != nil {
		return pluginapi.Registration{}, nil, err
	}
	callbacks, err := runDiscover(L, manifest.Name)
	if err != nil {
		return pluginapi.Registration{}, nil, err
	}

	h.plugins[manifest.Name] = &luaPlugin{
		manifest:     manifest,
		code:         string(code),
		registration: registration,
		callbacks:    callbacks,
	}
	return registration, callbacks, nil
}

// runRegistration calls registration(ctx, register_fn), where register_fn
// captures the {name, version, description} table the module announces.
func runRegistration(L *lua.LState, name string) (pluginapi.Registration, error) {
	fn := L.GetGlobal("registration")
	if fn.Type() != lua.LTFunction {
		return pluginapi.Registration{}, fmt.Errorf("plugin %s does not define registration(ctx, register_fn)", name)
	}

	var reg pluginapi.Registration
	var called bool
	registerFn := L.NewFunction(func(state *lua.LState) int {
		tbl := state.CheckTable(1)
		reg = pluginapi.Registration{
			Name:        luaTableString(tbl, "name"),
			Version:     luaTableString(tbl, "version"),
			Description: luaTableString(tbl, "description"),
		}
		called = true
		return 0
	})

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, L.NewTable(), registerFn); err != nil {
		return pluginapi.Registration{}, fmt.Errorf("registration %s: %w", name, err)
	}
	if !called {
		return pluginapi.Registration{}, fmt.Errorf("plugin %s's registration never called register_fn", name)
	}
	return reg, nil
}

// runDiscover calls discover(ctx, register_callback_fn), where
// register_callback_fn captures one (name, argc, types...) announcement per
// call, per spec.md §6.
func runDiscover(L *lua.LState, name string) ([]pluginapi.CallbackSig, error) {
	fn := L.GetGlobal("discover")
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("plugin %s does not define discover(ctx, register_callback_fn)", name)
	}

	var callbacks []pluginapi.CallbackSig
	registerCallbackFn := L.NewFunction(func(state *lua.LState) int {
		cbName := state.CheckString(1)
		argc := state.CheckInt(2)
		types := make([]pluginapi.ArgType, 0, argc)
		for i := 0; i < argc; i++ {
			switch state.CheckString(3 + i) {
			case "int":
				types = append(types, pluginapi.TypeInt)
			case "string":
				types = append(types, pluginapi.TypeString)
			default:
				state.RaiseError("register_callback_fn: type %d must be 'int' or 'string'", i)
			}
		}
		callbacks = append(callbacks, pluginapi.CallbackSig{Name: cbName, Argc: argc, Types: types})
		return 0
	})

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, L.NewTable(), registerCallbackFn); err != nil {
		return nil, fmt.Errorf("discover %s: %w", name, err)
	}
	return callbacks, nil
}

func luaTableString(tbl *lua.LTable, field string) string {
	v := tbl.RawGetString(field)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// Unload removes a plugin's cached state.
func (h *Host) Unload(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.plugins[name]; !ok {
		return fmt.Errorf("%w: %s", pluginhost.ErrPluginNotLoaded, name)
	}
	delete(h.plugins, name)
	return nil
}

// Invoke runs a fresh sandboxed state, reloads the module's code, and calls
// the named callback as a plain Lua global function: callback(filename,
// arg1, arg2, ...) -> integer.
func (h *Host) Invoke(ctx context.Context, plugin, callback, filename string, args []pluginapi.Arg) (int32, error) {
	h.mu.RLock()
	p, ok := h.plugins[plugin]
	h.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", pluginhost.ErrPluginNotLoaded, plugin)
	}

	L, err := h.factory.NewState(ctx)
	if err != nil {
		return 0, fmt.Errorf("create state for %s: %w", plugin, err)
	}
	defer L.Close()

	if err := L.DoString(p.code); err != nil {
		return 0, fmt.Errorf("load %s: %w", plugin, err)
	}

	fn := L.GetGlobal(callback)
	if fn.Type() != lua.LTFunction {
		return 0, fmt.Errorf("plugin %s does not define callback %s", plugin, callback)
	}

	luaArgs := make([]lua.LValue, 0, len(args)+1)
	luaArgs = append(luaArgs, lua.LString(filename))
	for _, a := range args {
		if a.IsString {
			luaArgs = append(luaArgs, lua.LString(a.Str))
		} else {
			luaArgs = append(luaArgs, lua.LNumber(a.Int))
		}
	}

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, luaArgs...); err != nil {
		return 0, fmt.Errorf("invoke %s.%s: %w", plugin, callback, err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("callback %s.%s must return an integer, got %s", plugin, callback, ret.Type())
	}
	return int32(n), nil
}

// Plugins returns the names of all loaded Lua plugins.
func (h *Host) Plugins() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.plugins))
	for name := range h.plugins {
		names = append(names, name)
	}
	return names
}

// Close releases the host's plugins.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.plugins = nil
	return nil
}

var _ pluginhost.Host = (*Host)(nil)
