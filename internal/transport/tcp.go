package transport

import (
	"bytes"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/tkogut/scalebridge/internal/types"
)

// tcpConn implements Conn over a raw TCP socket.
type tcpConn struct {
	mu   sync.Mutex
	nc   net.Conn
	open bool
}

func dialTCP(cfg types.TCPConfig, timeout time.Duration) (Conn, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	nc, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, &IOErr{Fatal: true, Err: err}
	}
	return &tcpConn{nc: nc, open: true}, nil
}

func (c *tcpConn) WriteAll(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return &IOErr{Fatal: true, Err: errors.New("write on closed connection")}
	}
	_, err := c.nc.Write(b)
	if err != nil {
		c.closeLocked()
		return &IOErr{Fatal: true, Err: err}
	}
	return nil
}

// ReadResponse reads until delim is observed, the deadline elapses, or the
// peer closes the connection. Bytes accumulated before a timeout are
// discarded: partial frames are never returned.
func (c *tcpConn) ReadResponse(delim []byte, deadline time.Time) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil, &IOErr{Fatal: true, Err: errors.New("read on closed connection")}
	}
	if err := c.nc.SetReadDeadline(deadline); err != nil {
		return nil, &IOErr{Fatal: true, Err: err}
	}

	var buf bytes.Buffer
	chunk := make([]byte, 256)
	for {
		n, err := c.nc.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if idx := bytes.Index(buf.Bytes(), delim); idx >= 0 {
				return buf.Bytes()[:idx], nil
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, TimeoutErr{}
			}
			// EOF, ECONNRESET, EPIPE, and everything else here mean the
			// socket is no longer usable (spec.md §4.1: "closed-by-peer
			// is classified fatal").
			c.closeLocked()
			return nil, &IOErr{Fatal: true, Err: err}
		}
	}
}

func (c *tcpConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *tcpConn) closeLocked() error {
	if !c.open {
		return nil
	}
	c.open = false
	return c.nc.Close()
}

func (c *tcpConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
