package manager

import (
	"sync"
	"time"

	"github.com/tkogut/scalebridge/internal/transport"
	"github.com/tkogut/scalebridge/internal/types"
)

// device is one live entry in the manager's map: a config snapshot, a
// connection handle, and the mutex that totally orders every operation
// against it (spec.md §5: "within a single device, all operations are
// strictly serialized by that device's mutex").
type device struct {
	mu sync.Mutex

	cfg   types.DeviceConfig
	conn  transport.Conn
	state State

	faultTransient bool
	faultSince     time.Time
}

func newDevice(cfg types.DeviceConfig) *device {
	return &device{cfg: cfg, state: StateDisconnected}
}

// connect dials the device's configured transport and installs the
// resulting handle. Must be called with mu held.
func (d *device) connectLocked() error {
	d.state = StateConnecting
	timeout := time.Duration(d.cfg.TimeoutMS) * time.Millisecond
	conn, err := transport.Dial(d.cfg.Connection, timeout)
	if err != nil {
		d.state = StateFaulted
		d.faultTransient = isTransientDialErr(err)
		d.faultSince = time.Now()
		return &types.ConnectionError{DeviceID: d.cfg.DeviceID, Transient: d.faultTransient, Err: err}
	}
	d.conn = conn
	d.state = StateConnected
	return nil
}

// disconnectLocked closes the live connection, if any, and resets state.
// Must be called with mu held.
func (d *device) disconnectLocked() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
	d.state = StateDisconnected
	d.faultTransient = false
}

func isTransientDialErr(err error) bool {
	if ioe, ok := err.(*transport.IOErr); ok {
		return !ioe.Fatal
	}
	return false
}
