package manager

import (
	"github.com/tkogut/scalebridge/internal/catalog"
	"github.com/tkogut/scalebridge/internal/logging"
	"github.com/tkogut/scalebridge/internal/types"
)

// Reconcile applies one CatalogChanged notification, following the five
// rules of spec.md §4.5 verbatim. Teardown acquires the affected device's
// own mutex first, so an in-flight command on it finishes before the
// connection is closed (spec.md §5).
func (m *manager) Reconcile(change catalog.Change) {
	log := logging.WithOperation("manager.reconcile")

	m.mu.RLock()
	liveIDs := make([]string, 0, len(m.live))
	for id := range m.live {
		liveIDs = append(liveIDs, id)
	}
	m.mu.RUnlock()

	for id, cfg := range change.Snapshot {
		m.mu.RLock()
		d, ok := m.live[id]
		m.mu.RUnlock()

		switch {
		case !ok && cfg.Enabled:
			nd := newDevice(cfg)
			nd.mu.Lock()
			err := nd.connectLocked()
			nd.mu.Unlock()
			if err != nil {
				log.WithError(err).WithField("device", id).Warn("reconcile connect failed, device left faulted")
			}
			m.mu.Lock()
			m.live[id] = nd
			m.order = append(m.order, id)
			m.mu.Unlock()

		case ok && !cfg.Enabled:
			m.teardown(id, d)

		case ok && connectionOrProtocolChanged(d, cfg):
			m.teardown(id, d)
			nd := newDevice(cfg)
			nd.mu.Lock()
			err := nd.connectLocked()
			nd.mu.Unlock()
			if err != nil {
				log.WithError(err).WithField("device", id).Warn("reconcile rebuild connect failed, device left faulted")
			}
			m.mu.Lock()
			m.live[id] = nd
			m.order = append(m.order, id)
			m.mu.Unlock()

		case ok:
			// Command-map or metadata-only change: update in place, no
			// reconnect (spec.md §4.5).
			d.mu.Lock()
			d.cfg = cfg
			d.mu.Unlock()
		}
	}

	for _, id := range liveIDs {
		if _, stillPresent := change.Snapshot[id]; !stillPresent {
			m.mu.RLock()
			d, ok := m.live[id]
			m.mu.RUnlock()
			if ok {
				m.teardown(id, d)
			}
		}
	}
}

// connectionOrProtocolChanged reports whether cfg's transport identity
// changed enough to require tearing down and rebuilding the live
// connection, versus a metadata/command-map edit that can be applied in
// place.
func connectionOrProtocolChanged(d *device, cfg types.DeviceConfig) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.Protocol != cfg.Protocol {
		return true
	}
	return !sameConnection(d.cfg.Connection, cfg.Connection)
}

// sameConnection compares ConnectionSpec by value rather than by the
// pointer identity of its TCP/Serial blocks, which differ across every
// Clone even when the underlying settings didn't change.
func sameConnection(a, b types.ConnectionSpec) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case types.ConnectionTCP:
		if (a.TCP == nil) != (b.TCP == nil) {
			return false
		}
		return a.TCP == nil || *a.TCP == *b.TCP
	case types.ConnectionSerial:
		if (a.Serial == nil) != (b.Serial == nil) {
			return false
		}
		return a.Serial == nil || *a.Serial == *b.Serial
	default:
		return true
	}
}

// teardown removes id from the live map and closes its connection. It
// acquires the device mutex first and releases it before taking the
// manager's map lock — the two locks are never held at once anywhere in
// this package, so there's no ordering to get backwards. Taking d.mu
// first still guarantees any in-flight command on this device completes
// before its connection is closed (spec.md §5).
func (m *manager) teardown(id string, d *device) {
	d.mu.Lock()
	d.disconnectLocked()
	d.mu.Unlock()

	m.mu.Lock()
	delete(m.live, id)
	m.order = removeFromOrder(m.order, id)
	m.mu.Unlock()
}

func removeFromOrder(order []string, id string) []string {
	out := order[:0:0]
	for _, v := range order {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
