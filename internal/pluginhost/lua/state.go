// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package lua hosts Lua-scripted post-filter callback modules in-process via
// gopher-lua, implementing the literal registration/discover/invoke ABI of
// spec.md §6.
package lua

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// safeLibrary is one Lua standard library safe to load in a sandboxed state.
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

// defaultSafeLibraries lists libraries safe for a callback module: base,
// table, string, math. Blocked: os, io, debug, package — a callback has no
// business touching the filesystem or the process beyond its declared
// (filename, argv) -> i32 contract.
func defaultSafeLibraries() []safeLibrary {
	return []safeLibrary{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// StateFactory creates sandboxed Lua states with only safe libraries loaded.
type StateFactory struct {
	libraries []safeLibrary
}

// NewStateFactory creates a state factory with the default safe library set.
func NewStateFactory() *StateFactory {
	return &StateFactory{libraries: defaultSafeLibraries()}
}

// NewState creates a fresh sandboxed Lua state.
func (f *StateFactory) NewState(_ context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, lib := range f.libraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("open library %s: %w", lib.name, err)
		}
	}

	return L, nil
}
