// Package adapter implements DeviceAdapter (spec.md §4.3): translating a
// logical command name into the device's raw wire command, mediating
// internal/transport and internal/wireproto, and reconciling the parsed
// frame against the command that elicited it.
package adapter

import (
	"strings"
	"time"

	"github.com/tkogut/scalebridge/internal/logging"
	"github.com/tkogut/scalebridge/internal/transport"
	"github.com/tkogut/scalebridge/internal/types"
	"github.com/tkogut/scalebridge/internal/wireproto"
)

// Result is the outcome of a successful Transact: exactly one of Reading or
// Ack is set.
type Result struct {
	Reading *types.WeightReading
	Ack     *types.AckResult
}

// Adapter is stateless beyond the connection handle it's given each call;
// its behavior is driven entirely by the device's protocol tag and command
// map (spec.md §4.3), not by its manufacturer/model — recognized bindings
// like Rinstrum C320+RINCMD or Dini Argeo DFW+DINI_ASCII are catalog data,
// not distinct code paths. See Registry for the catalog of known bindings,
// kept for documentation and diagnostics; Transact never consults it.
type Adapter struct{}

// New constructs the single stateless Adapter used for every device.
func New() *Adapter { return &Adapter{} }

// Transact sends logicalCmd to the device over conn and returns its result.
func (a *Adapter) Transact(conn transport.Conn, cfg types.DeviceConfig, logicalCmd string) (*Result, error) {
	raw, ok := cfg.Commands.Lookup(logicalCmd)
	if !ok {
		return nil, &types.InvalidCommandError{DeviceID: cfg.DeviceID, Command: logicalCmd}
	}

	framed := wireproto.Frame(raw, cfg.Protocol)
	if err := conn.WriteAll(framed); err != nil {
		return nil, translateTransportErr(cfg.DeviceID, err)
	}

	deadline := time.Now().Add(time.Duration(cfg.TimeoutMS) * time.Millisecond)
	respBytes, err := conn.ReadResponse(wireproto.Delimiter(cfg.Protocol), deadline)
	if err != nil {
		if _, isTimeout := err.(transport.TimeoutErr); isTimeout {
			return nil, &types.TimeoutError{DeviceID: cfg.DeviceID, Command: logicalCmd}
		}
		return nil, translateTransportErr(cfg.DeviceID, err)
	}

	parsed, err := wireproto.Parse(string(respBytes), cfg.Protocol)
	if err != nil {
		if pe, ok := err.(*types.ProtocolError); ok {
			pe.DeviceID = cfg.DeviceID
			return nil, pe
		}
		return nil, &types.ProtocolError{DeviceID: cfg.DeviceID, Raw: string(respBytes)}
	}

	normCmd := strings.ToLower(logicalCmd)

	if parsed.Ack != nil {
		if normCmd == strings.ToLower(types.CmdTare) || normCmd == strings.ToLower(types.CmdZero) {
			return &Result{Ack: parsed.Ack}, nil
		}
		return nil, &types.ProtocolError{DeviceID: cfg.DeviceID, Raw: parsed.Ack.Message}
	}

	reading := parsed.Reading
	wireproto.StampNow(reading)
	warnOnMismatch(cfg.DeviceID, normCmd, parsed.ReadKind)

	return &Result{Reading: reading}, nil
}

// warnOnMismatch implements Open Question (b): when the frame's own
// classification disagrees with the command that elicited it, trust the
// frame and just log — never silently force the requested classification.
func warnOnMismatch(deviceID, normCmd string, kind types.ReadKind) {
	wantsGross := normCmd == strings.ToLower(types.CmdReadGross)
	wantsNet := normCmd == strings.ToLower(types.CmdReadNet)
	mismatch := (wantsGross && kind == types.ReadKindNet) || (wantsNet && kind == types.ReadKindGross)
	if mismatch {
		logging.WithCommand(logging.WithDevice(deviceID), normCmd).
			Warn("frame's own classification disagrees with requested command; returning the frame's classification")
	}
}

func translateTransportErr(deviceID string, err error) error {
	if ioe, ok := err.(*transport.IOErr); ok {
		return &types.ConnectionError{DeviceID: deviceID, Transient: !ioe.Fatal, Err: ioe.Err}
	}
	return &types.ConnectionError{DeviceID: deviceID, Transient: false, Err: err}
}
