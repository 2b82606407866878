package types

import "fmt"

// Kind identifies which branch of the error taxonomy (spec §7) an error
// belongs to, so callers (chiefly internal/httpapi) can map it to a status
// code without string matching.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindConfig       Kind = "config"
	KindDeviceNotFnd Kind = "device_not_found"
	KindInvalidCmd   Kind = "invalid_command"
	KindConnection   Kind = "connection"
	KindTimeout      Kind = "timeout"
	KindProtocol     Kind = "protocol"
)

// ValidationError reports a DeviceConfig that fails the §3 invariants.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: field %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Kind() Kind { return KindValidation }

// ConfigError reports an IO or parse failure on the catalog file.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Kind() Kind { return KindConfig }

// DeviceNotFoundError reports an unknown device_id.
type DeviceNotFoundError struct {
	DeviceID string
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("device not found: %s", e.DeviceID)
}

func (e *DeviceNotFoundError) Kind() Kind { return KindDeviceNotFnd }

// InvalidCommandError reports a logical command name absent from the
// device's command map.
type InvalidCommandError struct {
	DeviceID string
	Command  string
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid command %q for device %s", e.Command, e.DeviceID)
}

func (e *InvalidCommandError) Kind() Kind { return KindInvalidCmd }

// ConnectionError reports a transport failure, either transient (the
// handle may be retried/reused after reconnect) or fatal (requires a full
// reconnect).
type ConnectionError struct {
	DeviceID  string
	Transient bool
	Err       error
}

func (e *ConnectionError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("connection (%s) for device %s: %v", kind, e.DeviceID, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Kind() Kind { return KindConnection }

// TimeoutError reports that no complete response was observed before the
// device's deadline.
type TimeoutError struct {
	DeviceID string
	Command  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for %s response from device %s", e.Command, e.DeviceID)
}

func (e *TimeoutError) Kind() Kind { return KindTimeout }

// ProtocolError reports a response frame that matched no known pattern.
type ProtocolError struct {
	DeviceID string
	Raw      string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on device %s: unparseable frame %q", e.DeviceID, e.Raw)
}

func (e *ProtocolError) Kind() Kind { return KindProtocol }

// Kinded is implemented by every error type in the taxonomy above.
type Kinded interface {
	error
	Kind() Kind
}
