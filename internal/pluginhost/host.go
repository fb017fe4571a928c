// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package pluginhost

import (
	"context"
	"errors"

	"github.com/efind-go/efind/pkg/pluginapi"
)

// Sentinel errors shared by both Host backends.
var (
	ErrHostClosed          = errors.New("host is closed")
	ErrPluginNotLoaded     = errors.New("plugin not loaded")
	ErrPluginAlreadyLoaded = errors.New("plugin already loaded")
)

// Host manages one plugin runtime type: compiled binaries over go-plugin,
// or Lua scripts over gopher-lua.
type Host interface {
	// Load initializes a plugin from its manifest and returns what it
	// announced at discover time.
	Load(ctx context.Context, manifest *Manifest, dir string) (pluginapi.Registration, []pluginapi.CallbackSig, error)

	// Unload tears down a plugin.
	Unload(ctx context.Context, name string) error

	// Invoke calls the named callback of the named plugin.
	Invoke(ctx context.Context, plugin, callback, filename string, args []pluginapi.Arg) (int32, error)

	// Plugins returns the names of all loaded plugins.
	Plugins() []string

	// Close shuts down the host and every plugin it loaded.
	Close(ctx context.Context) error
}
