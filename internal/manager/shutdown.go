package manager

import (
	"sync"
	"time"
)

// DisconnectAll idempotently tears down every live device (spec.md §4.5
// "disconnect_all"). Each device gets a grace window of 2x its own
// timeout_ms to let an in-flight command finish before its connection is
// force-closed out from under it.
func (m *manager) DisconnectAll() {
	m.mu.Lock()
	devices := make([]*device, 0, len(m.live))
	for _, d := range m.live {
		devices = append(devices, d)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, d := range devices {
		wg.Add(1)
		go func(d *device) {
			defer wg.Done()
			shutdownOne(d)
		}(d)
	}
	wg.Wait()

	m.mu.Lock()
	m.live = make(map[string]*device)
	m.order = nil
	m.mu.Unlock()
}

// shutdownOne acquires d's mutex to disconnect it cleanly; if that takes
// longer than the grace window, the connection is force-closed without
// the lock instead (spec.md §5: "shutdown cancels queued waiters on
// per-device mutexes by force-closing the connection after the grace
// window"). cfg and conn are read without the lock: cfg is never mutated
// after device construction, and a stale conn read only risks closing a
// connection that a concurrent connectLocked is about to replace anyway,
// which is exactly what disconnectLocked, run afterward under the lock,
// cleans up.
func shutdownOne(d *device) {
	grace := 2 * time.Duration(d.cfg.TimeoutMS) * time.Millisecond

	done := make(chan struct{})
	go func() {
		d.mu.Lock()
		d.disconnectLocked()
		d.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		if conn := d.conn; conn != nil {
			conn.Close()
		}
		<-done
	}
}
