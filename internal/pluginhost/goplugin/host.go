// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package goplugin hosts compiled binary plugins over HashiCorp go-plugin's
// net/rpc transport, implementing pluginhost.Host.
package goplugin

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	hashiplug "github.com/hashicorp/go-plugin"

	"github.com/efind-go/efind/internal/pluginhost"
	"github.com/efind-go/efind/pkg/pluginapi"
)

// PluginClient wraps go-plugin's client for testability.
type PluginClient interface {
	Client() (hashiplug.ClientProtocol, error)
	Kill()
}

// ClientFactory creates plugin clients.
type ClientFactory interface {
	NewClient(execPath string) PluginClient
}

// DefaultClientFactory creates real go-plugin clients talking net/rpc.
type DefaultClientFactory struct{}

// NewClient creates a real go-plugin client for execPath.
func (f *DefaultClientFactory) NewClient(execPath string) PluginClient {
	return hashiplug.NewClient(&hashiplug.ClientConfig{
		HandshakeConfig:  pluginapi.HandshakeConfig,
		Plugins:          map[string]hashiplug.Plugin{"callbacks": &pluginapi.RPCPlugin{}},
		Cmd:              exec.Command(execPath), //nolint:gosec // execPath resolved from a plugin manifest validated during discovery
		AllowedProtocols: []hashiplug.Protocol{hashiplug.ProtocolNetRPC},
	})
}

type loadedPlugin struct {
	manifest *pluginhost.Manifest
	client   PluginClient
	handler  pluginapi.RemoteHandler
}

// Host manages binary plugins over go-plugin's net/rpc transport.
type Host struct {
	clientFactory ClientFactory
	plugins       map[string]*loadedPlugin
	mu            sync.RWMutex
	closed        bool
}

// NewHost creates a binary plugin host using real go-plugin clients.
func NewHost() *Host {
	return &Host{
		clientFactory: &DefaultClientFactory{},
		plugins:       make(map[string]*loadedPlugin),
	}
}

// NewHostWithFactory creates a host with a custom client factory, for
// testing without spawning real subprocesses.
func NewHostWithFactory(factory ClientFactory) *Host {
	if factory == nil {
		panic("goplugin: factory cannot be nil")
	}
	return &Host{
		clientFactory: factory,
		plugins:       make(map[string]*loadedPlugin),
	}
}

// Load spawns the plugin's executable, performs the discover handshake over
// net/rpc, and returns what it announced.
func (h *Host) Load(_ context.Context, manifest *pluginhost.Manifest, dir string) (pluginapi.Registration, []pluginapi.CallbackSig, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return pluginapi.Registration{}, nil, pluginhost.ErrHostClosed
	}
	if _, ok := h.plugins[manifest.Name]; ok {
		return pluginapi.Registration{}, nil, fmt.Errorf("%w: %s", pluginhost.ErrPluginAlreadyLoaded, manifest.Name)
	}
	if manifest.BinaryPlugin == nil {
		return pluginapi.Registration{}, nil, fmt.Errorf("plugin %s is not a binary plugin", manifest.Name)
	}

	execPath := filepath.Join(dir, manifest.BinaryPlugin.Executable)
	if _, err := os.Stat(execPath); err != nil {
		return pluginapi.Registration{}, nil, fmt.Errorf("plugin executable not found: %s: %w", execPath, err)
	}

	client := h.clientFactory.NewClient(execPath)

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return pluginapi.Registration{}, nil, fmt.Errorf("connect to plugin %s: %w", manifest.Name, err)
	}

	raw, err := rpcClient.Dispense("callbacks")
	if err != nil {
		client.Kill()
		return pluginapi.Registration{}, nil, fmt.Errorf("dispense plugin %s: %w", manifest.Name, err)
	}

	handler, ok := raw.(pluginapi.RemoteHandler)
	if !ok {
		client.Kill()
		return pluginapi.Registration{}, nil, fmt.Errorf("plugin %s does not implement the callback ABI", manifest.Name)
	}

	registration, callbacks, err := handler.Discover()
	if err != nil {
		client.Kill()
		return pluginapi.Registration{}, nil, fmt.Errorf("discover plugin %s: %w", manifest.Name, err)
	}

	h.plugins[manifest.Name] = &loadedPlugin{manifest: manifest, client: client, handler: handler}
	return registration, callbacks, nil
}

// Unload kills the plugin subprocess.
func (h *Host) Unload(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return pluginhost.ErrHostClosed
	}
	p, ok := h.plugins[name]
	if !ok {
		return fmt.Errorf("%w: %s", pluginhost.ErrPluginNotLoaded, name)
	}
	p.client.Kill()
	delete(h.plugins, name)
	return nil
}

// Invoke calls the named callback on the named plugin over net/rpc.
//
// The RLock is released before the RPC call so a slow plugin doesn't block
// Load/Unload/Close; if Close races it, the call fails gracefully once the
// subprocess is killed.
func (h *Host) Invoke(_ context.Context, plugin, callback, filename string, args []pluginapi.Arg) (int32, error) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return 0, pluginhost.ErrHostClosed
	}
	p, ok := h.plugins[plugin]
	h.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("%w: %s", pluginhost.ErrPluginNotLoaded, plugin)
	}

	result, err := p.handler.Invoke(callback, filename, args)
	if err != nil {
		return 0, fmt.Errorf("plugin %s callback %s: %w", plugin, callback, err)
	}
	return result, nil
}

// Plugins returns the names of all loaded binary plugins.
func (h *Host) Plugins() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil
	}
	names := make([]string, 0, len(h.plugins))
	for name := range h.plugins {
		names = append(names, name)
	}
	return names
}

// Close kills every loaded plugin subprocess.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, p := range h.plugins {
		p.client.Kill()
	}
	h.closed = true
	clear(h.plugins)
	return nil
}

var _ pluginhost.Host = (*Host)(nil)
