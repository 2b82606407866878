// Package core implements the Public Core API (spec.md §4.6): the narrow
// façade internal/httpapi calls, composing internal/catalog and
// internal/manager and wiring CatalogChanged reconciliation between them.
package core

import (
	"sync"

	"github.com/tkogut/scalebridge/internal/adapter"
	"github.com/tkogut/scalebridge/internal/catalog"
	"github.com/tkogut/scalebridge/internal/logging"
	"github.com/tkogut/scalebridge/internal/manager"
	"github.com/tkogut/scalebridge/internal/types"
)

// Version is reported by Health and set at build time via cmd/scalebridged.
var Version = "dev"

const (
	StatusOK      = "OK"
	StatusError   = "ERROR"
	StatusStopped = "STOPPED"
)

// Health is the GET /health payload shape (spec.md §6).
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Service is the Public Core API: health, device listing, command
// dispatch, and config CRUD, each a thin pass-through to catalog/manager
// plus the reconciliation wiring spec.md specifies.
type Service struct {
	store *catalog.Store
	mgr   manager.Manager

	mu       sync.RWMutex
	status   string
	stopOnce sync.Once
	stopCh   chan struct{}
}

// New constructs a Service. Call Bootstrap before serving traffic.
func New(store *catalog.Store, mgr manager.Manager) *Service {
	return &Service{store: store, mgr: mgr, status: StatusError, stopCh: make(chan struct{})}
}

// Bootstrap loads the catalog, connects enabled devices, and subscribes
// the manager to future CatalogChanged notifications. A catalog load
// failure is the one fatal error in this system (spec.md §7): the caller
// should exit non-zero.
func (s *Service) Bootstrap() error {
	if err := s.store.Load(); err != nil {
		s.setStatus(StatusError)
		return err
	}
	s.mgr.Bootstrap(s.store)

	changes := s.store.Subscribe()
	go s.reconcileLoop(changes)

	s.setStatus(StatusOK)
	return nil
}

func (s *Service) reconcileLoop(changes <-chan catalog.Change) {
	log := logging.WithOperation("core.reconcile")
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			s.mgr.Reconcile(change)
			log.WithField("version", change.Version).Debug("catalog reconciled")
		case <-s.stopCh:
			return
		}
	}
}

func (s *Service) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Health reports process status and version (spec.md §4.6/§6).
func (s *Service) Health() Health {
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()
	return Health{Status: status, Service: "scalebridged", Version: Version}
}

// ListDevices returns enabled devices in catalog order (spec.md §4.6).
func (s *Service) ListDevices() []manager.Summary {
	return s.mgr.ListEnabled()
}

// Execute dispatches a logical command to a device (spec.md §4.6/§4.5).
func (s *Service) Execute(deviceID, command string) (*adapter.Result, error) {
	return s.mgr.Execute(deviceID, command)
}

// GetConfig returns one device's stored configuration.
func (s *Service) GetConfig(id string) (types.DeviceConfig, bool) {
	return s.store.Get(id)
}

// ListConfigs returns the whole catalog.
func (s *Service) ListConfigs() catalog.Snapshot {
	return s.store.List()
}

// SaveConfig validates and persists cfg; the store's publish triggers
// reconciliation asynchronously via reconcileLoop.
func (s *Service) SaveConfig(id string, cfg types.DeviceConfig) error {
	return s.store.Save(id, cfg)
}

// DeleteConfig removes a device's configuration.
func (s *Service) DeleteConfig(id string) error {
	return s.store.Delete(id)
}

// Shutdown disconnects every live device, flips health to STOPPED, and
// stops the reconciliation loop. Idempotent.
func (s *Service) Shutdown() {
	s.mgr.DisconnectAll()
	s.setStatus(StatusStopped)
	s.stopOnce.Do(func() { close(s.stopCh) })
}
