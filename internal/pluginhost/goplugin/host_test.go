// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package goplugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	hashiplug "github.com/hashicorp/go-plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efind-go/efind/internal/pluginhost"
	"github.com/efind-go/efind/pkg/pluginapi"
)

func createTempExecutable(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("dummy"), 0o755)) //nolint:gosec // test fixture needs exec bit
}

// mockClientProtocol implements hashiplug.ClientProtocol for testing.
type mockClientProtocol struct {
	handler     pluginapi.RemoteHandler
	dispenseErr error
	rawDispense interface{}
}

func (m *mockClientProtocol) Close() error { return nil }
func (m *mockClientProtocol) Dispense(_ string) (interface{}, error) {
	if m.dispenseErr != nil {
		return nil, m.dispenseErr
	}
	if m.rawDispense != nil {
		return m.rawDispense, nil
	}
	return m.handler, nil
}
func (m *mockClientProtocol) Ping() error { return nil }

// mockPluginClient implements PluginClient for testing.
type mockPluginClient struct {
	protocol  *mockClientProtocol
	killed    bool
	clientErr error
}

func (m *mockPluginClient) Client() (hashiplug.ClientProtocol, error) {
	if m.clientErr != nil {
		return nil, m.clientErr
	}
	return m.protocol, nil
}

func (m *mockPluginClient) Kill() { m.killed = true }

// mockRemoteHandler implements pluginapi.RemoteHandler for testing.
type mockRemoteHandler struct {
	registration pluginapi.Registration
	callbacks    []pluginapi.CallbackSig
	discoverErr  error
	invokeResult int32
	invokeErr    error
}

func (m *mockRemoteHandler) Discover() (pluginapi.Registration, []pluginapi.CallbackSig, error) {
	if m.discoverErr != nil {
		return pluginapi.Registration{}, nil, m.discoverErr
	}
	return m.registration, m.callbacks, nil
}

func (m *mockRemoteHandler) Invoke(_ string, _ string, _ []pluginapi.Arg) (int32, error) {
	return m.invokeResult, m.invokeErr
}

type mockClientFactory struct {
	client *mockPluginClient
}

func (f *mockClientFactory) NewClient(_ string) PluginClient { return f.client }

func newMockHost(handler *mockRemoteHandler) (*Host, *mockPluginClient) {
	mockClient := &mockPluginClient{protocol: &mockClientProtocol{handler: handler}}
	return NewHostWithFactory(&mockClientFactory{client: mockClient}), mockClient
}

func testManifest(name string) *pluginhost.Manifest {
	return &pluginhost.Manifest{
		Name:         name,
		Version:      "1.0.0",
		ABI:          ">=1.0.0",
		Type:         pluginhost.TypeBinary,
		BinaryPlugin: &pluginhost.BinaryConfig{Executable: name},
	}
}

func TestHost_Load_Success(t *testing.T) {
	dir := t.TempDir()
	createTempExecutable(t, filepath.Join(dir, "has-ext"))

	handler := &mockRemoteHandler{
		registration: pluginapi.Registration{Name: "has-ext", Version: "1.0.0"},
		callbacks:    []pluginapi.CallbackSig{{Name: "has_ext", Argc: 1, Types: []pluginapi.ArgType{pluginapi.TypeString}}},
	}
	host, _ := newMockHost(handler)

	reg, cbs, err := host.Load(context.Background(), testManifest("has-ext"), dir)
	require.NoError(t, err)
	assert.Equal(t, "has-ext", reg.Name)
	require.Len(t, cbs, 1)
	assert.Equal(t, "has_ext", cbs[0].Name)
	assert.Equal(t, []string{"has-ext"}, host.Plugins())
}

func TestHost_Load_MissingExecutable(t *testing.T) {
	dir := t.TempDir()
	host, _ := newMockHost(&mockRemoteHandler{})

	_, _, err := host.Load(context.Background(), testManifest("has-ext"), dir)
	assert.Error(t, err)
}

func TestHost_Load_AlreadyLoaded(t *testing.T) {
	dir := t.TempDir()
	createTempExecutable(t, filepath.Join(dir, "has-ext"))
	host, _ := newMockHost(&mockRemoteHandler{})

	_, _, err := host.Load(context.Background(), testManifest("has-ext"), dir)
	require.NoError(t, err)

	_, _, err = host.Load(context.Background(), testManifest("has-ext"), dir)
	assert.ErrorIs(t, err, pluginhost.ErrPluginAlreadyLoaded)
}

func TestHost_Load_DiscoverError(t *testing.T) {
	dir := t.TempDir()
	createTempExecutable(t, filepath.Join(dir, "has-ext"))
	host, mockClient := newMockHost(&mockRemoteHandler{discoverErr: errors.New("boom")})

	_, _, err := host.Load(context.Background(), testManifest("has-ext"), dir)
	assert.Error(t, err)
	assert.True(t, mockClient.killed, "expected client to be killed on discover failure")
}

func TestHost_Invoke(t *testing.T) {
	dir := t.TempDir()
	createTempExecutable(t, filepath.Join(dir, "has-ext"))
	handler := &mockRemoteHandler{invokeResult: 1}
	host, _ := newMockHost(handler)

	_, _, err := host.Load(context.Background(), testManifest("has-ext"), dir)
	require.NoError(t, err)

	result, err := host.Invoke(context.Background(), "has-ext", "has_ext", "/tmp/x.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), result)
}

func TestHost_Invoke_NotLoaded(t *testing.T) {
	host, _ := newMockHost(&mockRemoteHandler{})
	_, err := host.Invoke(context.Background(), "missing", "has_ext", "/tmp/x.txt", nil)
	assert.ErrorIs(t, err, pluginhost.ErrPluginNotLoaded)
}

func TestHost_Close_KillsClients(t *testing.T) {
	dir := t.TempDir()
	createTempExecutable(t, filepath.Join(dir, "has-ext"))
	host, mockClient := newMockHost(&mockRemoteHandler{})

	_, _, err := host.Load(context.Background(), testManifest("has-ext"), dir)
	require.NoError(t, err)

	require.NoError(t, host.Close(context.Background()))
	assert.True(t, mockClient.killed)
	assert.Nil(t, host.Plugins())
}

func TestHost_Load_AfterClose(t *testing.T) {
	host, _ := newMockHost(&mockRemoteHandler{})
	require.NoError(t, host.Close(context.Background()))

	_, _, err := host.Load(context.Background(), testManifest("has-ext"), t.TempDir())
	assert.ErrorIs(t, err, pluginhost.ErrHostClosed)
}
