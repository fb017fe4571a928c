// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package pluginapi is the SDK binary plugin authors link against. It
// implements the host side and the plugin side of spec.md §6's callback
// ABI: registration, discover, and the (filename, argc, argv) -> i32
// invocation contract, carried over HashiCorp go-plugin's net/rpc
// transport (no gRPC codegen needed for a three-method ABI this narrow).
//
// Example usage:
//
//	package main
//
//	import "github.com/efind-go/efind/pkg/pluginapi"
//
//	type extPlugin struct{}
//
//	func (extPlugin) Discover() (pluginapi.Registration, []pluginapi.CallbackSig) {
//		return pluginapi.Registration{Name: "ext", Version: "1.0.0"},
//			[]pluginapi.CallbackSig{{Name: "has_ext", Argc: 1, Types: []pluginapi.ArgType{pluginapi.TypeString}}}
//	}
//
//	func (extPlugin) Invoke(name, filename string, args []pluginapi.Arg) (int32, error) {
//		return 1, nil
//	}
//
//	func main() {
//		pluginapi.Serve(extPlugin{})
//	}
package pluginapi

import (
	"errors"
	"fmt"
	"net/rpc"

	hashiplug "github.com/hashicorp/go-plugin"
)

// ArgType is the declared type of one callback argument slot, announced at
// discover time.
type ArgType int

// Argument types a callback may declare, per spec.md §6.
const (
	TypeInt ArgType = iota
	TypeString
)

func (t ArgType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// CallbackSig describes one callback a plugin announced via discover:
// its name, argument count, and the declared type of each slot.
type CallbackSig struct {
	Name  string
	Argc  int
	Types []ArgType
}

// Registration is what a plugin announces about itself at load time.
type Registration struct {
	Name        string
	Version     string
	Description string
}

// Arg is one resolved argument for a single callback invocation: argv[i]
// points to either an int32 or a NUL-terminated string, per spec.md §6.
type Arg struct {
	IsString bool
	Int      int64
	Str      string
}

// Handler is what a plugin implements: announce itself and its callbacks,
// then answer invocations by name.
type Handler interface {
	// Discover returns this plugin's registration and the callbacks it
	// exposes.
	Discover() (Registration, []CallbackSig)

	// Invoke calls the named callback with filename and args, returning
	// its i32 result.
	Invoke(name, filename string, args []Arg) (int32, error)
}

// RemoteHandler is the host-side view of a loaded binary plugin: the same
// two calls as Handler, but each can additionally fail with a transport
// error, since they now cross a process boundary.
type RemoteHandler interface {
	Discover() (Registration, []CallbackSig, error)
	Invoke(name, filename string, args []Arg) (int32, error)
}

// HandshakeConfig is the go-plugin handshake both host and plugin must
// agree on.
var HandshakeConfig = hashiplug.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "EFIND_PLUGIN",
	MagicCookieValue: "efind-v1",
}

// pluginMapKey is the name Dispense looks up on the host side; the net/rpc
// server itself is always registered as "Plugin" by go-plugin, regardless
// of this key.
const pluginMapKey = "callbacks"

// Serve starts the plugin process. Call this from main(); it blocks and
// does not return under normal operation.
func Serve(h Handler) {
	if h == nil {
		panic("pluginapi: handler cannot be nil")
	}
	hashiplug.Serve(&hashiplug.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]hashiplug.Plugin{
			pluginMapKey: &RPCPlugin{Impl: h},
		},
	})
}

// RPCPlugin implements go-plugin's net/rpc Plugin interface, serving Impl
// on the plugin side and dispensing an RPC client on the host side.
type RPCPlugin struct {
	Impl Handler
}

// Server returns the RPC service implementation, called on the plugin
// side.
func (p *RPCPlugin) Server(*hashiplug.MuxBroker) (interface{}, error) {
	if p.Impl == nil {
		return nil, errors.New("pluginapi: Impl is nil")
	}
	return &rpcServer{impl: p.Impl}, nil
}

// Client returns an RPC client implementing RemoteHandler, called on the
// host side.
func (p *RPCPlugin) Client(_ *hashiplug.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &rpcClient{client: c}, nil
}

var _ RemoteHandler = (*rpcClient)(nil)

// discoverReply and invokeArgs/invokeReply are the net/rpc wire types.
type discoverReply struct {
	Registration Registration
	Callbacks    []CallbackSig
}

type invokeArgs struct {
	Name     string
	Filename string
	CallArgs []Arg
}

type invokeReply struct {
	Result int32
}

// rpcServer runs in the plugin process, dispatching net/rpc calls to Impl.
type rpcServer struct {
	impl Handler
}

func (s *rpcServer) Discover(_ struct{}, reply *discoverReply) error {
	reg, callbacks := s.impl.Discover()
	reply.Registration = reg
	reply.Callbacks = callbacks
	return nil
}

func (s *rpcServer) Invoke(args invokeArgs, reply *invokeReply) error {
	result, err := s.impl.Invoke(args.Name, args.Filename, args.CallArgs)
	if err != nil {
		return err
	}
	reply.Result = result
	return nil
}

// rpcClient runs in the host process, implementing RemoteHandler over net/rpc.
type rpcClient struct {
	client *rpc.Client
}

func (c *rpcClient) Discover() (Registration, []CallbackSig, error) {
	var reply discoverReply
	if err := c.client.Call("Plugin.Discover", struct{}{}, &reply); err != nil {
		return Registration{}, nil, fmt.Errorf("discover: %w", err)
	}
	return reply.Registration, reply.Callbacks, nil
}

func (c *rpcClient) Invoke(name, filename string, args []Arg) (int32, error) {
	var reply invokeReply
	req := invokeArgs{Name: name, Filename: filename, CallArgs: args}
	if err := c.client.Call("Plugin.Invoke", req, &reply); err != nil {
		return 0, fmt.Errorf("invoke %s: %w", name, err)
	}
	return reply.Result, nil
}
