// Package server wires the HTTP surface: widget page, JSON API,
// Streamlabs OAuth flow and the widget WebSocket endpoint.
package server
