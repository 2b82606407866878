package manager

import (
	"testing"

	"github.com/tkogut/scalebridge/internal/catalog"
	"github.com/tkogut/scalebridge/internal/types"
)

func TestReconcile_NewEnabledDeviceIsConnected(t *testing.T) {
	m := newTestManager()
	change := catalog.Change{Version: 1, Snapshot: catalog.Snapshot{
		"scale_1": testDeviceConfig("scale_1"),
	}}

	m.Reconcile(change)

	m.mu.RLock()
	_, ok := m.live["scale_1"]
	m.mu.RUnlock()
	if !ok {
		t.Fatal("expected scale_1 to be added to the live set")
	}
}

func TestReconcile_DisabledExistingDeviceIsTornDown(t *testing.T) {
	m := newTestManager()
	d := newDevice(testDeviceConfig("scale_1"))
	d.state = StateConnected
	d.conn = &fakeConn{}
	m.live["scale_1"] = d
	m.order = []string{"scale_1"}

	cfg := testDeviceConfig("scale_1")
	cfg.Enabled = false
	m.Reconcile(catalog.Change{Version: 2, Snapshot: catalog.Snapshot{"scale_1": cfg}})

	m.mu.RLock()
	_, ok := m.live["scale_1"]
	m.mu.RUnlock()
	if ok {
		t.Error("expected scale_1 to be torn down once disabled")
	}
	if !d.conn.(*fakeConn).closed {
		t.Error("expected the old connection to be closed")
	}
}

func TestReconcile_AbsentDeviceIsTornDown(t *testing.T) {
	m := newTestManager()
	d := newDevice(testDeviceConfig("scale_1"))
	d.state = StateConnected
	d.conn = &fakeConn{}
	m.live["scale_1"] = d
	m.order = []string{"scale_1"}

	m.Reconcile(catalog.Change{Version: 2, Snapshot: catalog.Snapshot{}})

	m.mu.RLock()
	_, ok := m.live["scale_1"]
	m.mu.RUnlock()
	if ok {
		t.Error("expected scale_1 to be torn down once absent from the snapshot")
	}
}

func TestReconcile_ConnectionChangeRebuildsDevice(t *testing.T) {
	m := newTestManager()
	d := newDevice(testDeviceConfig("scale_1"))
	d.state = StateConnected
	d.conn = &fakeConn{}
	m.live["scale_1"] = d
	m.order = []string{"scale_1"}

	cfg := testDeviceConfig("scale_1")
	cfg.Connection.TCP = &types.TCPConfig{Host: "10.0.0.2", Port: 4002}
	m.Reconcile(catalog.Change{Version: 2, Snapshot: catalog.Snapshot{"scale_1": cfg}})

	if !d.conn.(*fakeConn).closed {
		t.Error("expected the old connection to be closed when the connection spec changes")
	}
	m.mu.RLock()
	nd, ok := m.live["scale_1"]
	m.mu.RUnlock()
	if !ok {
		t.Fatal("expected scale_1 to still be live after rebuild")
	}
	if nd == d {
		t.Error("expected a rebuilt device, not the original pointer")
	}
}

func TestReconcile_MetadataOnlyChangeUpdatesInPlace(t *testing.T) {
	m := newTestManager()
	d := newDevice(testDeviceConfig("scale_1"))
	d.state = StateConnected
	conn := &fakeConn{}
	d.conn = conn
	m.live["scale_1"] = d
	m.order = []string{"scale_1"}

	cfg := testDeviceConfig("scale_1")
	cfg.Name = "Renamed Scale"
	m.Reconcile(catalog.Change{Version: 2, Snapshot: catalog.Snapshot{"scale_1": cfg}})

	m.mu.RLock()
	nd, ok := m.live["scale_1"]
	m.mu.RUnlock()
	if !ok || nd != d {
		t.Fatal("expected the same device instance to survive a metadata-only change")
	}
	if conn.closed {
		t.Error("expected the live connection to survive a metadata-only change")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.Name != "Renamed Scale" {
		t.Errorf("cfg.Name = %q, want %q", d.cfg.Name, "Renamed Scale")
	}
}

func TestSameConnection(t *testing.T) {
	a := types.ConnectionSpec{Kind: types.ConnectionTCP, TCP: &types.TCPConfig{Host: "h", Port: 1}}
	b := types.ConnectionSpec{Kind: types.ConnectionTCP, TCP: &types.TCPConfig{Host: "h", Port: 1}}
	if !sameConnection(a, b) {
		t.Error("expected equal-by-value TCP specs (distinct pointers) to compare equal")
	}

	c := types.ConnectionSpec{Kind: types.ConnectionTCP, TCP: &types.TCPConfig{Host: "h", Port: 2}}
	if sameConnection(a, c) {
		t.Error("expected differing ports to compare unequal")
	}

	d := types.ConnectionSpec{Kind: types.ConnectionSerial, Serial: &types.SerialConfig{Port: "/dev/ttyUSB0", BaudRate: 9600}}
	if sameConnection(a, d) {
		t.Error("expected differing kinds to compare unequal")
	}
}
