package manager

import (
	"errors"
	"sync"
	"time"

	"github.com/tkogut/scalebridge/internal/adapter"
	"github.com/tkogut/scalebridge/internal/catalog"
	"github.com/tkogut/scalebridge/internal/logging"
	"github.com/tkogut/scalebridge/internal/types"
)

// errFaultedFatal is returned (wrapped in a ConnectionError) for a device
// left Faulted{fatal} by a prior dial; it requires a reconfigure or
// enable-cycle to clear (spec.md §4.5 "terminal states").
var errFaultedFatal = errors.New("device is faulted and requires reconfigure")

// Connector owns device lifecycle: bringing a device up and tearing it
// down. Split out from Dispatcher/Registry per katagun-webpa-common's
// Connector/Router/Registry strategy-interface shape.
type Connector interface {
	Bootstrap(store *catalog.Store)
	Reconcile(change catalog.Change)
	DisconnectAll()
}

// Dispatcher runs a single logical command against a live device.
type Dispatcher interface {
	Execute(deviceID, command string) (*adapter.Result, error)
}

// Summary is the (id, name, model) tuple list_devices returns (spec.md
// §4.6).
type Summary struct {
	DeviceID string
	Name     string
	Model    string
}

// Registry answers read-only queries about the live set.
type Registry interface {
	ListEnabled() []Summary
	StateOf(deviceID string) (State, bool)
}

// Manager is the full DeviceManager surface (spec.md §4.5).
type Manager interface {
	Connector
	Dispatcher
	Registry
}

type manager struct {
	adp *adapter.Adapter

	mu    sync.RWMutex
	live  map[string]*device
	order []string // insertion order, for ListEnabled (spec.md §4.6)
}

// New constructs a Manager bound to adp. Call Bootstrap once before
// serving traffic.
func New(adp *adapter.Adapter) Manager {
	return &manager{
		adp:  adp,
		live: make(map[string]*device),
	}
}

// Bootstrap loads the catalog's current snapshot and attempts to connect
// every enabled device. A connect failure does not abort startup (spec.md
// §4.5): the device is left Faulted and retried lazily on first command.
func (m *manager) Bootstrap(store *catalog.Store) {
	snapshot := store.List()
	order := store.Order()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range order {
		cfg, ok := snapshot[id]
		if !ok || !cfg.Enabled {
			continue
		}
		d := newDevice(cfg)
		d.mu.Lock()
		err := d.connectLocked()
		if err != nil {
			// Leave the fault transient so the first Execute redials it.
			d.faultTransient = true
		}
		d.mu.Unlock()
		if err != nil {
			logging.WithDevice(id).WithError(err).Warn("bootstrap connect failed, device left faulted")
		}
		m.live[id] = d
		m.order = append(m.order, id)
	}
}

// Execute dispatches a single logical command to deviceID (spec.md §4.5
// "execute").
func (m *manager) Execute(deviceID, command string) (*adapter.Result, error) {
	deviceID = types.NormalizeDeviceID(deviceID)

	m.mu.RLock()
	d, ok := m.live[deviceID]
	m.mu.RUnlock()
	if !ok {
		return nil, &types.DeviceNotFoundError{DeviceID: deviceID}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateDisconnected || (d.state == StateFaulted && d.faultTransient) {
		if err := reconnectWithBackoff(d); err != nil {
			return nil, err
		}
	}
	if d.state == StateFaulted && !d.faultTransient {
		return nil, &types.ConnectionError{DeviceID: deviceID, Transient: false, Err: errFaultedFatal}
	}

	result, err := m.adp.Transact(d.conn, d.cfg, command)
	if err == nil {
		return result, nil
	}

	switch e := err.(type) {
	case *types.TimeoutError:
		d.disconnectLocked()
		d.state = StateFaulted
		d.faultTransient = true
		d.faultSince = time.Now()
		return nil, e
	case *types.ConnectionError:
		if e.Transient {
			d.state = StateFaulted
			d.faultTransient = true
		} else {
			d.disconnectLocked()
			d.state = StateFaulted
			d.faultTransient = false
		}
		d.faultSince = time.Now()
		return nil, e
	default:
		// ProtocolError and InvalidCommandError leave state untouched
		// (spec.md §4.5 step 4): a garbled frame or a bad command name
		// says nothing about the link's health.
		return nil, err
	}
}

// reconnectWithBackoff implements spec.md §4.5 step 3: an immediate dial,
// then one retry after each reconnectBackoff entry (100ms, then 500ms)
// while the failures stay transient, so at most three dials per execute
// call. A fatal dial error ends the schedule at once. Must be called with
// d.mu held.
func reconnectWithBackoff(d *device) error {
	err := d.connectLocked()
	if err == nil {
		return nil
	}
	for _, wait := range reconnectBackoff {
		if d.state == StateFaulted && !d.faultTransient {
			break // fatal dial error, no point retrying on schedule
		}
		time.Sleep(wait)
		err = d.connectLocked()
		if err == nil {
			return nil
		}
	}
	return err
}

// ListEnabled returns enabled live devices in catalog insertion order
// (spec.md §4.6).
func (m *manager) ListEnabled() []Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.order))
	for _, id := range m.order {
		d, ok := m.live[id]
		if !ok {
			continue
		}
		d.mu.Lock()
		cfg := d.cfg
		d.mu.Unlock()
		if !cfg.Enabled {
			continue
		}
		out = append(out, Summary{DeviceID: cfg.DeviceID, Name: cfg.Name, Model: cfg.Model})
	}
	return out
}

// StateOf reports a live device's current connection state.
func (m *manager) StateOf(deviceID string) (State, bool) {
	deviceID = types.NormalizeDeviceID(deviceID)
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.live[deviceID]
	if !ok {
		return StateDisconnected, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, true
}
