// Package manager implements the DeviceManager (spec.md §4.5): it owns the
// set of live devices, keeps that set consistent with the ConfigStore via
// CatalogChanged reconciliation, and serializes command dispatch per device.
//
// The public shape follows katagun-webpa-common/device.Manager's split into
// Connector/Router/Registry strategy interfaces, adapted from "connections
// to a websocket hub" to "connections to a TCP/serial scale".
package manager

import "time"

// State is a device's connection lifecycle state (spec.md §4.5 state
// machine diagram).
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// reconnectBackoff is the delay schedule tried within a single execute call
// before giving up and returning a persistent ConnectionError (spec.md
// §4.5 step 3: "one retry using exponential backoff (e.g., 100ms then
// 500ms)").
var reconnectBackoff = []time.Duration{100 * time.Millisecond, 500 * time.Millisecond}
