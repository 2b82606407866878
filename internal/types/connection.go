package types

// StopBits, Parity, and FlowControl enumerate the serial framing knobs the
// frontend exposes but the backend must enforce defaults for (spec.md §9,
// Open Question (c)).
type StopBits string

const (
	StopBitsOne StopBits = "one"
	StopBitsTwo StopBits = "two"
)

type Parity string

const (
	ParityNone Parity = "none"
	ParityEven Parity = "even"
	ParityOdd  Parity = "odd"
)

type FlowControl string

const (
	FlowControlNone     FlowControl = "none"
	FlowControlSoftware FlowControl = "software"
	FlowControlHardware FlowControl = "hardware"
)

// TCPConfig addresses a device reachable over a raw TCP socket.
type TCPConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	TimeoutMS int    `json:"timeout_ms,omitempty"`
}

// SerialConfig addresses a device reachable over an RS-232 link.
type SerialConfig struct {
	Port        string      `json:"port"`
	BaudRate    int         `json:"baud_rate"`
	DataBits    int         `json:"data_bits,omitempty"`
	StopBits    StopBits    `json:"stop_bits,omitempty"`
	Parity      Parity      `json:"parity,omitempty"`
	FlowControl FlowControl `json:"flow_control,omitempty"`
	TimeoutMS   int         `json:"timeout_ms,omitempty"`
}

// applyDefaults fills in the serial defaults mandated by spec.md §3: 8 data
// bits, one stop bit, no parity, no flow control. Called by
// ConnectionSpec.Normalize, never left to callers.
func (s *SerialConfig) applyDefaults() {
	if s.DataBits == 0 {
		s.DataBits = 8
	}
	if s.StopBits == "" {
		s.StopBits = StopBitsOne
	}
	if s.Parity == "" {
		s.Parity = ParityNone
	}
	if s.FlowControl == "" {
		s.FlowControl = FlowControlNone
	}
}

func (s *SerialConfig) validate() error {
	if s.Port == "" {
		return &ValidationError{Field: "connection.serial.port", Reason: "must be non-empty"}
	}
	if s.BaudRate < 1 {
		return &ValidationError{Field: "connection.serial.baud_rate", Reason: "must be >= 1"}
	}
	switch s.StopBits {
	case StopBitsOne, StopBitsTwo:
	default:
		return &ValidationError{Field: "connection.serial.stop_bits", Reason: "must be one of: one, two"}
	}
	switch s.Parity {
	case ParityNone, ParityEven, ParityOdd:
	default:
		return &ValidationError{Field: "connection.serial.parity", Reason: "must be one of: none, even, odd"}
	}
	switch s.FlowControl {
	case FlowControlNone, FlowControlSoftware, FlowControlHardware:
	default:
		return &ValidationError{Field: "connection.serial.flow_control", Reason: "must be one of: none, software, hardware"}
	}
	return nil
}

func (t *TCPConfig) validate() error {
	if t.Port < 1 || t.Port > 65535 {
		return &ValidationError{Field: "connection.tcp.port", Reason: "must be in [1, 65535]"}
	}
	if t.Host == "" {
		return &ValidationError{Field: "connection.tcp.host", Reason: "must be non-empty"}
	}
	return nil
}

// ConnectionKind discriminates the ConnectionSpec tagged union.
type ConnectionKind string

const (
	ConnectionTCP    ConnectionKind = "tcp"
	ConnectionSerial ConnectionKind = "serial"
)

// ConnectionSpec is the tagged variant Tcp{...} | Serial{...} from spec.md
// §3. Exactly one of TCP/Serial is populated, matching Kind.
type ConnectionSpec struct {
	Kind   ConnectionKind `json:"kind"`
	TCP    *TCPConfig     `json:"tcp,omitempty"`
	Serial *SerialConfig  `json:"serial,omitempty"`
}

// Normalize fills in serial defaults. Call before Validate and before
// handing the spec to internal/transport.
func (c *ConnectionSpec) Normalize() {
	if c.Kind == ConnectionSerial && c.Serial != nil {
		c.Serial.applyDefaults()
	}
}

// Validate enforces the §3 invariants for whichever variant is tagged.
func (c *ConnectionSpec) Validate() error {
	switch c.Kind {
	case ConnectionTCP:
		if c.TCP == nil {
			return &ValidationError{Field: "connection", Reason: "kind=tcp requires a tcp block"}
		}
		if c.Serial != nil {
			return &ValidationError{Field: "connection", Reason: "kind=tcp must not carry a serial block"}
		}
		return c.TCP.validate()
	case ConnectionSerial:
		if c.Serial == nil {
			return &ValidationError{Field: "connection", Reason: "kind=serial requires a serial block"}
		}
		if c.TCP != nil {
			return &ValidationError{Field: "connection", Reason: "kind=serial must not carry a tcp block"}
		}
		return c.Serial.validate()
	default:
		return &ValidationError{Field: "connection.kind", Reason: "must be one of: tcp, serial"}
	}
}
