package core

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tkogut/scalebridge/internal/adapter"
	"github.com/tkogut/scalebridge/internal/catalog"
	"github.com/tkogut/scalebridge/internal/manager"
	"github.com/tkogut/scalebridge/internal/types"
)

// fakeManager is a minimal manager.Manager double: it records Bootstrap
// and Reconcile calls instead of touching any real transport.
type fakeManager struct {
	bootstrapped  chan struct{}
	reconciles    chan catalog.Change
	disconnectAll int
}

func newFakeManager() *fakeManager {
	return &fakeManager{bootstrapped: make(chan struct{}, 1), reconciles: make(chan catalog.Change, 8)}
}

func (f *fakeManager) Bootstrap(store *catalog.Store) { f.bootstrapped <- struct{}{} }
func (f *fakeManager) Reconcile(change catalog.Change) { f.reconciles <- change }
func (f *fakeManager) DisconnectAll()                  { f.disconnectAll++ }
func (f *fakeManager) Execute(deviceID, command string) (*adapter.Result, error) {
	return &adapter.Result{Ack: &types.AckResult{Message: "ok"}}, nil
}
func (f *fakeManager) ListEnabled() []manager.Summary { return nil }
func (f *fakeManager) StateOf(deviceID string) (manager.State, bool) {
	return manager.StateDisconnected, false
}

func sampleConfig(id string) types.DeviceConfig {
	return types.DeviceConfig{
		DeviceID: id,
		Name:     "n",
		Protocol: types.ProtocolRINCMD,
		Connection: types.ConnectionSpec{
			Kind: types.ConnectionTCP,
			TCP:  &types.TCPConfig{Host: "127.0.0.1", Port: 1},
		},
		Commands: types.CommandMap{
			types.CmdReadGross: "A", types.CmdReadNet: "B",
			types.CmdTare: "C", types.CmdZero: "D",
		},
		TimeoutMS: 2000,
		Enabled:   true,
	}
}

func TestService_Health_StatusTransitions(t *testing.T) {
	store := catalog.New(filepath.Join(t.TempDir(), "catalog.json"))
	fm := newFakeManager()
	svc := New(store, fm)

	if got := svc.Health().Status; got != StatusError {
		t.Errorf("initial status = %q, want %q", got, StatusError)
	}

	if err := svc.Bootstrap(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-fm.bootstrapped:
	case <-time.After(time.Second):
		t.Fatal("expected Bootstrap to be called on the manager")
	}
	if got := svc.Health().Status; got != StatusOK {
		t.Errorf("status after Bootstrap = %q, want %q", got, StatusOK)
	}

	svc.Shutdown()
	if got := svc.Health().Status; got != StatusStopped {
		t.Errorf("status after Shutdown = %q, want %q", got, StatusStopped)
	}
	if fm.disconnectAll != 1 {
		t.Errorf("expected DisconnectAll to be called once, got %d", fm.disconnectAll)
	}
}

func TestService_Shutdown_Idempotent(t *testing.T) {
	store := catalog.New(filepath.Join(t.TempDir(), "catalog.json"))
	fm := newFakeManager()
	svc := New(store, fm)
	if err := svc.Bootstrap(); err != nil {
		t.Fatal(err)
	}

	svc.Shutdown()
	svc.Shutdown() // must not panic on a second close

	if fm.disconnectAll != 2 {
		t.Errorf("expected DisconnectAll called twice, got %d", fm.disconnectAll)
	}
}

func TestService_SaveConfig_TriggersReconciliation(t *testing.T) {
	store := catalog.New(filepath.Join(t.TempDir(), "catalog.json"))
	fm := newFakeManager()
	svc := New(store, fm)
	if err := svc.Bootstrap(); err != nil {
		t.Fatal(err)
	}

	if err := svc.SaveConfig("scale_1", sampleConfig("scale_1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case change := <-fm.reconciles:
		if _, ok := change.Snapshot["scale_1"]; !ok {
			t.Error("expected the reconciled snapshot to contain scale_1")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reconciliation")
	}
}

func TestService_GetConfig_ListConfigs_DeleteConfig(t *testing.T) {
	store := catalog.New(filepath.Join(t.TempDir(), "catalog.json"))
	fm := newFakeManager()
	svc := New(store, fm)
	if err := svc.Bootstrap(); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveConfig("scale_1", sampleConfig("scale_1")); err != nil {
		t.Fatal(err)
	}

	if _, ok := svc.GetConfig("scale_1"); !ok {
		t.Error("expected GetConfig to find scale_1")
	}
	if len(svc.ListConfigs()) != 1 {
		t.Error("expected ListConfigs to return one entry")
	}
	if err := svc.DeleteConfig("scale_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := svc.GetConfig("scale_1"); ok {
		t.Error("expected scale_1 to be gone after DeleteConfig")
	}
}

func TestService_Execute_DelegatesToManager(t *testing.T) {
	store := catalog.New(filepath.Join(t.TempDir(), "catalog.json"))
	fm := newFakeManager()
	svc := New(store, fm)

	result, err := svc.Execute("scale_1", types.CmdTare)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Ack == nil || result.Ack.Message != "ok" {
		t.Errorf("unexpected result: %+v", result)
	}
}
