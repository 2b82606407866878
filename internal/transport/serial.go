package transport

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"

	tarmserial "github.com/tarm/serial"

	"github.com/tkogut/scalebridge/internal/types"
)

// serialConn implements Conn over an RS-232 link via github.com/tarm/serial.
// Serial framing errors are transient unless three land consecutively, at
// which point the handle is marked fatal (spec.md §4.1).
type serialConn struct {
	mu             sync.Mutex
	port           *tarmserial.Port
	open           bool
	consecutiveErr int
}

func dialSerial(cfg types.SerialConfig, timeout time.Duration) (Conn, error) {
	tc := &tarmserial.Config{
		Name:        cfg.Port,
		Baud:        cfg.BaudRate,
		ReadTimeout: timeout,
		Size:        byte(cfg.DataBits),
		Parity:      toTarmParity(cfg.Parity),
		StopBits:    toTarmStopBits(cfg.StopBits),
	}
	p, err := tarmserial.OpenPort(tc)
	if err != nil {
		return nil, &IOErr{Fatal: true, Err: err}
	}
	return &serialConn{port: p, open: true}, nil
}

func toTarmParity(p types.Parity) tarmserial.Parity {
	switch p {
	case types.ParityEven:
		return tarmserial.ParityEven
	case types.ParityOdd:
		return tarmserial.ParityOdd
	default:
		return tarmserial.ParityNone
	}
}

func toTarmStopBits(s types.StopBits) tarmserial.StopBits {
	if s == types.StopBitsTwo {
		return tarmserial.Stop2
	}
	return tarmserial.Stop1
}

func (c *serialConn) WriteAll(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return &IOErr{Fatal: true, Err: errors.New("write on closed serial port")}
	}
	_, err := c.port.Write(b)
	if err != nil {
		c.registerErrorLocked()
		return &IOErr{Fatal: !c.open, Err: err}
	}
	return nil
}

// ReadResponse polls the port in small slices, since tarm/serial's
// ReadTimeout is per-Read rather than a hard wall-clock deadline; the
// caller's deadline is enforced here on top of that.
func (c *serialConn) ReadResponse(delim []byte, deadline time.Time) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil, &IOErr{Fatal: true, Err: errors.New("read on closed serial port")}
	}

	var buf bytes.Buffer
	chunk := make([]byte, 256)
	for {
		if !time.Now().Before(deadline) {
			return nil, TimeoutErr{}
		}
		n, err := c.port.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if idx := bytes.Index(buf.Bytes(), delim); idx >= 0 {
				c.consecutiveErr = 0
				return buf.Bytes()[:idx], nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// No data yet within this Read's own timeout; keep
				// polling until our deadline, per tarm/serial's
				// read-timeout-returns-io.EOF convention.
				continue
			}
			c.registerErrorLocked()
			if !c.open {
				return nil, &IOErr{Fatal: true, Err: err}
			}
			return nil, &IOErr{Fatal: false, Err: err}
		}
	}
}

// registerErrorLocked counts consecutive framing errors and flips the
// handle fatal on the third, per spec.md §4.1. Called with mu held.
func (c *serialConn) registerErrorLocked() {
	c.consecutiveErr++
	if c.consecutiveErr >= 3 {
		c.open = false
		c.port.Close()
	}
}

func (c *serialConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil
	}
	c.open = false
	return c.port.Close()
}

func (c *serialConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
