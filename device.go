package labflow

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/finchlabs/labflow/valve"
)

// Predefined error types for robust error handling
var (
	ErrDuplicateDevice = errors.New("device name already registered")
	ErrUnknownDevice   = errors.New("unknown device")
)

// Info identifies one configured instrument.
type Info struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Vendor  string    `json:"vendor"`
	Model   string    `json:"model"`
	Port    string    `json:"port"`
	Address string    `json:"address,omitempty"`
}

// NewInfo assembles device identity with a fresh instance ID.
func NewInfo(name, vendor, model, port, address string) Info {
	return Info{
		ID:      uuid.New(),
		Name:    name,
		Vendor:  vendor,
		Model:   model,
		Port:    port,
		Address: address,
	}
}

// Device is one logical instrument exposed through the uniform API. Every
// driver, whatever the vendor protocol underneath, surfaces the same valve
// controller.
type Device interface {
	Info() Info
	Controller() *valve.Controller
}

// Manager is the device registry consumed by the HTTP API, the CLI, and the
// console. Devices register once at startup; lookups are concurrent-safe.
type Manager struct {
	mu      sync.RWMutex
	devices map[string]Device
}

// NewManager creates an empty device registry.
func NewManager() *Manager {
	return &Manager{devices: make(map[string]Device)}
}

// Register adds a device under its configured name.
func (m *Manager) Register(d Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := d.Info().Name
	if _, dup := m.devices[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateDevice, name)
	}
	m.devices[name] = d
	return nil
}

// Get returns the device registered under name.
func (m *Manager) Get(name string) (Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.devices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, name)
	}
	return d, nil
}

// List returns every registered device sorted by name.
func (m *Manager) List() []Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Info().Name < out[j].Info().Name
	})
	return out
}
