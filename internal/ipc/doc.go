// Package ipc implements the JSON-RPC control surface between the tidy CLI
// and the daemon, carried over a Unix domain socket.
package ipc
