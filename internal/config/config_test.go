package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchlabs/labflow/internal/logging"
	"github.com/finchlabs/labflow/transport"
	"github.com/finchlabs/labflow/valve"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, ":8041", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Devices)
}

func TestLoadDevices(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
listen: ":9000"
log_level: debug
devices:
  - name: solvent
    driver: vici
    model: selector
    port: /dev/ttyUSB0
    baud: 19200
    ports: 10
  - name: injector
    driver: vici
    model: injector
    port: /dev/ttyUSB0
`))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, "solvent", cfg.Devices[0].Name)
	assert.Equal(t, 19200, cfg.Devices[0].Baud)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Devices[1].Port)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "devices: [{driver: vici, port: demo}]"},
		{"missing port", "devices: [{name: a, driver: vici}]"},
		{"unknown driver", "devices: [{name: a, driver: rheodyne, port: demo}]"},
		{"duplicate name", `
devices:
  - {name: a, driver: vici, port: demo, ports: 6}
  - {name: a, driver: hamilton, port: demo}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuildManagerDemoDevices(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
devices:
  - {name: solvent, driver: vici, model: selector, port: demo, ports: 6}
  - {name: dist, driver: hamilton, port: demo, address: a}
`))
	require.NoError(t, err)

	reg := transport.NewRegistry()
	mgr, err := cfg.BuildManager(reg, logging.NewNop())
	require.NoError(t, err)

	devs := mgr.List()
	require.Len(t, devs, 2)
	assert.Equal(t, "dist", devs[0].Info().Name)
	assert.Equal(t, "demo", devs[0].Info().Port)

	// Simulated devices answer like real hardware.
	dev, err := mgr.Get("solvent")
	require.NoError(t, err)
	_, err = dev.Controller().Position(context.Background())
	require.NoError(t, err)
	key, known := dev.Controller().Current()
	assert.True(t, known)
	assert.Equal(t, valve.Position(0), key)
}

func TestDemoPositionsMatchGraph(t *testing.T) {
	// The simulator behind a demo port must accept exactly the codes the
	// driver can issue, so its position count mirrors the real graph.
	tests := []struct {
		name string
		d    DeviceConfig
		want int
	}{
		{"vici selector default", DeviceConfig{Driver: "vici"}, 6},
		{"vici selector sized", DeviceConfig{Driver: "vici", Ports: 10}, 10},
		{"vici injector", DeviceConfig{Driver: "vici", Model: "injector"}, 2},
		{"hamilton distributor", DeviceConfig{Driver: "hamilton"}, 2},
		{"hamilton selector", DeviceConfig{Driver: "hamilton", Model: "selector"}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.d.Name = "demo"
			tt.d.Port = "demo"
			if tt.d.Driver == "hamilton" {
				tt.d.Address = "a"
			}

			n, err := demoPositions(tt.d)
			require.NoError(t, err)

			bus, err := demoBus(tt.d)
			require.NoError(t, err)
			dev, err := buildDevice(tt.d, bus, logging.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, dev.Controller().Graph().Positions(), n)
		})
	}
}

func TestBuildManagerProfileDevice(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "head.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(`
vendor: VICI
model: C5H-46
rotor:
  radial: [1, 0, 0, 0]
  center: 1
stator:
  radial: [1, 2, 3, 4]
  center: 5
`), 0o644))

	cfgPath := filepath.Join(dir, "labflow.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
devices:
  - name: head
    driver: vici
    port: demo
    profile: `+profile+"\n"), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	mgr, err := cfg.BuildManager(transport.NewRegistry(), logging.NewNop())
	require.NoError(t, err)

	dev, err := mgr.Get("head")
	require.NoError(t, err)
	assert.Equal(t, "C5H-46", dev.Info().Model)
	assert.Equal(t, 4, dev.Controller().Graph().Positions())
}

func TestBuildManagerSharesRealPortBus(t *testing.T) {
	var opened int
	opener := func(device string, opts ...transport.Option) (transport.Conn, error) {
		opened++
		return transport.NewLoopback(func([]byte) []byte { return nil }), nil
	}
	reg := transport.NewRegistry(transport.WithOpener(opener))

	cfg, err := Load(writeConfig(t, `
devices:
  - {name: a, driver: vici, model: injector, port: /dev/ttyUSB0, address: "1"}
  - {name: b, driver: vici, model: injector, port: /dev/ttyUSB0, address: "2"}
`))
	require.NoError(t, err)

	_, err = cfg.BuildManager(reg, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, opened)
}
