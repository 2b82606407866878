// Package transport implements Connection (spec.md §4.1): a uniform
// request/response byte channel over TCP or serial links.
package transport

import (
	"fmt"
	"time"

	"github.com/tkogut/scalebridge/internal/types"
)

// Conn is the uniform channel C1 exposes to the rest of the subsystem.
// Every WriteAll/ReadResponse pair is treated by callers as atomic; Conn
// itself does not serialize access — internal/manager owns the lock.
type Conn interface {
	// WriteAll writes the entirety of b. Neither implementation sets a
	// write deadline, so the write is not bounded by the device timeout.
	WriteAll(b []byte) error

	// ReadResponse reads until delim is observed or deadline elapses.
	// Bytes accumulated before a timeout are discarded; partial frames are
	// never returned.
	ReadResponse(delim []byte, deadline time.Time) ([]byte, error)

	// Close releases OS resources. Idempotent.
	Close() error

	// IsOpen reports whether the handle is still usable.
	IsOpen() bool
}

// Dial opens a connection per spec, selecting TCP or serial by the tagged
// ConnectionSpec. timeout bounds the dial itself.
func Dial(spec types.ConnectionSpec, timeout time.Duration) (Conn, error) {
	switch spec.Kind {
	case types.ConnectionTCP:
		if spec.TCP == nil {
			return nil, fmt.Errorf("transport: tcp connection spec missing tcp block")
		}
		return dialTCP(*spec.TCP, timeout)
	case types.ConnectionSerial:
		if spec.Serial == nil {
			return nil, fmt.Errorf("transport: serial connection spec missing serial block")
		}
		return dialSerial(*spec.Serial, timeout)
	default:
		return nil, fmt.Errorf("transport: unknown connection kind %q", spec.Kind)
	}
}
