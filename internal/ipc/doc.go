// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management, request/response DTOs, and the
// conversions between internal models and lightweight wire representations.
// The server embeds the daemon; the client is a thin typed wrapper so CLI
// commands fail fast when the daemon is offline.
package ipc
