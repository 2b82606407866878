package types

import (
	"regexp"
	"strings"
)

// deviceIDPattern matches the normalized device_id shape from spec.md §3.
var deviceIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// NormalizeDeviceID lowercases id, the normalization spec.md §3/§6 requires
// before any catalog lookup or upsert.
func NormalizeDeviceID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Standard logical command names every enabled device must populate
// (spec.md §3).
const (
	CmdReadGross = "readGross"
	CmdReadNet   = "readNet"
	CmdTare      = "tare"
	CmdZero      = "zero"
)

var standardCommands = []string{CmdReadGross, CmdReadNet, CmdTare, CmdZero}

// CommandMap maps a logical command name to its raw protocol string. Keys
// are matched case-insensitively on lookup but stored as given, so a
// round-tripped DeviceConfig is byte-identical to what was saved.
type CommandMap map[string]string

// Lookup finds the raw command string for a logical name, ignoring case.
func (c CommandMap) Lookup(name string) (string, bool) {
	if raw, ok := c[name]; ok {
		return raw, true
	}
	lname := strings.ToLower(name)
	for k, v := range c {
		if strings.ToLower(k) == lname {
			return v, true
		}
	}
	return "", false
}

// DeviceConfig is the addressable unit of the catalog (spec.md §3).
type DeviceConfig struct {
	DeviceID     string         `json:"device_id"`
	Name         string         `json:"name"`
	Manufacturer string         `json:"manufacturer"`
	Model        string         `json:"model"`
	Protocol     Protocol       `json:"protocol"`
	Connection   ConnectionSpec `json:"connection"`
	Commands     CommandMap     `json:"commands"`
	TimeoutMS    int            `json:"timeout_ms"`
	Enabled      bool           `json:"enabled"`
}

// Normalize mutates cfg in place: lowercases DeviceID and fills connection
// defaults. Call before Validate and before upserting into the catalog.
func (cfg *DeviceConfig) Normalize() {
	cfg.DeviceID = NormalizeDeviceID(cfg.DeviceID)
	cfg.Connection.Normalize()
}

// Validate enforces every invariant from spec.md §3.
func (cfg *DeviceConfig) Validate() error {
	if cfg.DeviceID == "" {
		return &ValidationError{Field: "device_id", Reason: "must be non-empty"}
	}
	if !deviceIDPattern.MatchString(cfg.DeviceID) {
		return &ValidationError{Field: "device_id", Reason: "must match [a-z0-9_]+ after normalization"}
	}
	if !cfg.Protocol.Valid() {
		return &ValidationError{Field: "protocol", Reason: "must be one of: RINCMD, DINI_ASCII, CUSTOM"}
	}
	if cfg.TimeoutMS < 100 || cfg.TimeoutMS > 30000 {
		return &ValidationError{Field: "timeout_ms", Reason: "must be in [100, 30000]"}
	}
	if err := cfg.Connection.Validate(); err != nil {
		return err
	}
	if cfg.Enabled {
		for _, name := range standardCommands {
			if _, ok := cfg.Commands.Lookup(name); !ok {
				return &ValidationError{
					Field:  "commands." + name,
					Reason: "every enabled device must populate the standard commands (readGross, readNet, tare, zero)",
				}
			}
		}
	}
	return nil
}

// Clone returns a deep-enough copy of cfg safe to hand out as part of a
// read-only catalog snapshot.
func (cfg DeviceConfig) Clone() DeviceConfig {
	out := cfg
	if cfg.Commands != nil {
		out.Commands = make(CommandMap, len(cfg.Commands))
		for k, v := range cfg.Commands {
			out.Commands[k] = v
		}
	}
	if cfg.Connection.TCP != nil {
		tcp := *cfg.Connection.TCP
		out.Connection.TCP = &tcp
	}
	if cfg.Connection.Serial != nil {
		ser := *cfg.Connection.Serial
		out.Connection.Serial = &ser
	}
	return out
}
