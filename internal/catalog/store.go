// Package catalog implements the ConfigStore (spec.md §4.4): the
// authoritative device catalog, its atomic on-disk persistence, and the
// hot-reload notifications that drive internal/manager's reconciliation.
package catalog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/tkogut/scalebridge/internal/types"
)

// Snapshot is an immutable view of the catalog at one point in time, keyed
// by normalized device_id.
type Snapshot map[string]types.DeviceConfig

// Clone returns a deep-enough copy safe to hand out to a new subscriber.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, cfg := range s {
		out[id] = cfg.Clone()
	}
	return out
}

// Change is what Store publishes after every successful Save/Delete.
type Change struct {
	Version  uint64
	Snapshot Snapshot
}

// documentFile is the on-disk shape: {"devices": {"<id>": DeviceConfig}}.
type documentFile struct {
	Devices map[string]types.DeviceConfig `json:"devices"`
}

// Store holds the in-memory catalog and persists it atomically.
type Store struct {
	path string

	mu      sync.RWMutex
	devices Snapshot
	order   []string // device_id in first-seen order, for list_devices (spec.md §4.6)
	version uint64

	subMu sync.Mutex
	subs  []chan Change

	watcher *fsnotify.Watcher
	// lastWriteSize lets the fsnotify goroutine tell its own writeAtomic
	// calls apart from an operator editing the file by hand, so it only
	// re-Loads on external edits.
	lastWriteSize int64
}

// New constructs a Store backed by path. It does not load from disk; call
// Load explicitly (spec.md §4.4: "load() reads the JSON file...").
func New(path string) *Store {
	return &Store{path: path, devices: make(Snapshot)}
}

// Load reads the catalog file. A missing file yields an empty catalog,
// created on first Save; a parse failure is a fatal ConfigError (spec.md
// §4.4).
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.mu.Lock()
		s.devices = make(Snapshot)
		s.order = nil
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return &types.ConfigError{Op: "read", Err: err}
	}

	order, devices, err := decodeOrdered(data)
	if err != nil {
		return &types.ConfigError{Op: "parse", Err: err}
	}

	s.mu.Lock()
	s.devices = devices
	s.order = order
	s.mu.Unlock()
	return nil
}

// decodeOrdered parses the documentFile shape while recording the order
// device ids first appear in the "devices" object. encoding/json's map
// decoding loses key order, so the object is walked token-by-token instead;
// list_devices relies on that order being "insertion order preserved by
// the config file" (spec.md §4.6).
func decodeOrdered(data []byte) ([]string, Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if _, err := dec.Token(); err != nil { // top-level '{'
		return nil, nil, err
	}

	var order []string
	devices := make(Snapshot)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := keyTok.(string)
		if key != "devices" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, nil, err
			}
			continue
		}

		if _, err := dec.Token(); err != nil { // '{' opening devices object
			return nil, nil, err
		}
		for dec.More() {
			idTok, err := dec.Token()
			if err != nil {
				return nil, nil, err
			}
			id, _ := idTok.(string)
			var cfg types.DeviceConfig
			if err := dec.Decode(&cfg); err != nil {
				return nil, nil, err
			}
			cfg.DeviceID = id
			devices[id] = cfg
			order = append(order, id)
		}
		if _, err := dec.Token(); err != nil { // '}' closing devices object
			return nil, nil, err
		}
	}
	dec.Token() // top-level '}'; nothing left to validate past this point
	return order, devices, nil
}

// Get performs a case-insensitive lookup.
func (s *Store) Get(id string) (types.DeviceConfig, bool) {
	id = types.NormalizeDeviceID(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.devices[id]
	if !ok {
		return types.DeviceConfig{}, false
	}
	return cfg.Clone(), true
}

// List returns a snapshot of the full catalog.
func (s *Store) List() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.devices.Clone()
}

// Save validates, normalizes, and upserts cfg, then atomically persists
// the whole catalog and publishes a CatalogChanged notification.
func (s *Store) Save(id string, cfg types.DeviceConfig) error {
	cfg.DeviceID = id
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	next := s.devices.Clone()
	_, existed := next[cfg.DeviceID]
	next[cfg.DeviceID] = cfg
	if err := s.writeAtomicLocked(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.devices = next
	if !existed {
		s.order = append(s.order, cfg.DeviceID)
	}
	s.version++
	version := s.version
	s.mu.Unlock()

	s.publish(Change{Version: version, Snapshot: next.Clone()})
	return nil
}

// Delete removes id and atomically persists the catalog.
func (s *Store) Delete(id string) error {
	id = types.NormalizeDeviceID(id)

	s.mu.Lock()
	if _, ok := s.devices[id]; !ok {
		s.mu.Unlock()
		return &types.DeviceNotFoundError{DeviceID: id}
	}
	next := s.devices.Clone()
	delete(next, id)
	if err := s.writeAtomicLocked(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.devices = next
	s.order = removeString(s.order, id)
	s.version++
	version := s.version
	s.mu.Unlock()

	s.publish(Change{Version: version, Snapshot: next.Clone()})
	return nil
}

// Order returns device ids in first-seen order (spec.md §4.6).
func (s *Store) Order() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func removeString(list []string, target string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// Subscribe registers a channel that receives every future Change. The
// channel is buffered; a slow subscriber drops the oldest pending change
// rather than stall Save/Delete.
func (s *Store) Subscribe() <-chan Change {
	ch := make(chan Change, 4)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Store) publish(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
			// Drop the oldest, then push: subscribers only ever need the
			// latest snapshot, never an exhaustive history.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c:
			default:
			}
		}
	}
}

// writeAtomicLocked serializes devices and commits it via the tmp-write +
// fsync + rename protocol from spec.md §4.4. Must be called with mu held.
func (s *Store) writeAtomicLocked(devices Snapshot) error {
	doc := documentFile{Devices: make(map[string]types.DeviceConfig, len(devices))}
	for id, cfg := range devices {
		doc.Devices[id] = cfg
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &types.ConfigError{Op: "marshal", Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &types.ConfigError{Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &types.ConfigError{Op: "create temp", Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &types.ConfigError{Op: "write temp", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &types.ConfigError{Op: "fsync temp", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &types.ConfigError{Op: "close temp", Err: err}
	}

	// The rename is the commit point: a crash before this line leaves the
	// previous file intact; a crash after publishes the new one.
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return &types.ConfigError{Op: "rename", Err: err}
	}

	atomic.StoreInt64(&s.lastWriteSize, int64(len(data)))
	return nil
}

// Version reports the current catalog generation, incremented on every
// successful Save/Delete.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
