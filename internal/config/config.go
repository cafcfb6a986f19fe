// Package config loads the labflow configuration file and assembles the
// device registry it describes.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/finchlabs/labflow"
	"github.com/finchlabs/labflow/devices"
	"github.com/finchlabs/labflow/devices/hamilton"
	"github.com/finchlabs/labflow/devices/vici"
	"github.com/finchlabs/labflow/transport"
	"github.com/finchlabs/labflow/valve"
)

// ErrInvalidConfig indicates a configuration that cannot be turned into a
// running device registry. Configuration errors are fatal at startup.
var ErrInvalidConfig = errors.New("invalid configuration")

// DeviceConfig declares one valve positioner.
type DeviceConfig struct {
	Name    string `mapstructure:"name"`
	Driver  string `mapstructure:"driver"`  // vici or hamilton
	Model   string `mapstructure:"model"`   // driver model, e.g. selector, injector, distributor
	Port    string `mapstructure:"port"`    // serial device path, or "demo" for a simulated rig
	Baud    int    `mapstructure:"baud"`    // 0 uses the transport default
	Address string `mapstructure:"address"` // daisy-chain address, driver-specific
	Ports   int    `mapstructure:"ports"`   // port count for selector models
	Profile string `mapstructure:"profile"` // YAML profile path overriding the model topology
}

// Config is the top-level labflow configuration.
type Config struct {
	Listen   string         `mapstructure:"listen"`
	LogLevel string         `mapstructure:"log_level"`
	Devices  []DeviceConfig `mapstructure:"devices"`
}

// Load reads the configuration. With an empty path it searches for
// labflow.yaml (or .toml) in the working directory, ~/.config/labflow and
// /etc/labflow; a missing file yields the defaults. LABFLOW_* environment
// variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("listen", ":8041")
	v.SetDefault("log_level", "info")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("labflow")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/labflow")
		v.AddConfigPath("/etc/labflow")
	}
	v.SetEnvPrefix("LABFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Devices))
	for i, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("%w: device %d has no name", ErrInvalidConfig, i)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("%w: duplicate device name %q", ErrInvalidConfig, d.Name)
		}
		seen[d.Name] = struct{}{}
		if d.Port == "" {
			return fmt.Errorf("%w: device %q has no port", ErrInvalidConfig, d.Name)
		}
		switch d.Driver {
		case "vici", "hamilton":
		default:
			return fmt.Errorf("%w: device %q has unknown driver %q", ErrInvalidConfig, d.Name, d.Driver)
		}
	}
	return nil
}

// BuildManager opens every configured device through the bus registry and
// registers it. Devices sharing a port path share one bus. A port of "demo"
// backs the device with an in-memory simulator instead of real hardware.
func (c *Config) BuildManager(reg *transport.Registry, log *slog.Logger) (*labflow.Manager, error) {
	mgr := labflow.NewManager()
	for _, d := range c.Devices {
		bus, err := c.bus(reg, d)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", d.Name, err)
		}
		dev, err := buildDevice(d, bus, log)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", d.Name, err)
		}
		if err := mgr.Register(portDevice{Device: dev, port: d.Port}); err != nil {
			return nil, err
		}
		log.Info("device ready",
			"name", d.Name, "driver", d.Driver, "port", d.Port)
	}
	return mgr, nil
}

func (c *Config) bus(reg *transport.Registry, d DeviceConfig) (*transport.Bus, error) {
	if d.Port == "demo" {
		return demoBus(d)
	}
	var opts []transport.Option
	if d.Baud != 0 {
		opts = append(opts, transport.WithBaudRate(d.Baud))
	}
	return reg.Bus(d.Port, opts, transport.WithEmptyRetry(2))
}

// demoBus backs a device with the driver's protocol simulator. Demo devices
// never share a bus; each gets its own loopback line.
func demoBus(d DeviceConfig) (*transport.Bus, error) {
	n, err := demoPositions(d)
	if err != nil {
		return nil, err
	}
	var handler func(cmd []byte) []byte
	switch d.Driver {
	case "vici":
		handler = vici.Simulator(d.Address, n)
	case "hamilton":
		handler = hamilton.Simulator(d.Address, n)
	default:
		return nil, fmt.Errorf("%w: no simulator for driver %q", ErrInvalidConfig, d.Driver)
	}
	return transport.NewBus(transport.NewLoopback(handler)), nil
}

func demoPositions(d DeviceConfig) (int, error) {
	if d.Profile != "" {
		p, err := devices.LoadProfile(d.Profile)
		if err != nil {
			return 0, err
		}
		topo, err := p.Topology()
		if err != nil {
			return 0, err
		}
		return valve.NewGraph(topo).Positions(), nil
	}
	switch {
	case d.Driver == "vici" && d.Model == "injector":
		return 2, nil
	case d.Driver == "hamilton" && (d.Model == "" || d.Model == "distributor"):
		// Four grooves, but rotating by two steps reproduces the same
		// flow paths: the 8-port head addresses two positions.
		return 2, nil
	default:
		// Selector models, matching the driver defaults.
		if d.Ports == 0 {
			if d.Driver == "vici" {
				return 6, nil
			}
			return 8, nil
		}
		return d.Ports, nil
	}
}

// portDevice stamps the configured port path onto the driver's device info.
// Drivers only ever see a bus handle, so the path is known here alone.
type portDevice struct {
	labflow.Device
	port string
}

func (p portDevice) Info() labflow.Info {
	info := p.Device.Info()
	info.Port = p.port
	return info
}

func buildDevice(d DeviceConfig, bus *transport.Bus, log *slog.Logger) (labflow.Device, error) {
	opts := []valve.ControllerOption{
		valve.WithLogger(log.With("device", d.Name)),
	}

	if d.Profile != "" {
		p, err := devices.LoadProfile(d.Profile)
		if err != nil {
			return nil, err
		}
		topo, err := p.Topology()
		if err != nil {
			return nil, err
		}
		model := d.Model
		if model == "" {
			model = p.Model
		}
		switch d.Driver {
		case "vici":
			return vici.NewFromTopology(d.Name, model, bus, d.Address, topo, opts...)
		case "hamilton":
			return hamilton.NewFromTopology(d.Name, model, bus, d.Address, topo, opts...)
		}
	}

	switch d.Driver {
	case "vici":
		switch d.Model {
		case "", "selector":
			ports := d.Ports
			if ports == 0 {
				ports = 6
			}
			return vici.NewSelector(d.Name, bus, ports, d.Address, opts...)
		case "injector":
			return vici.NewInjector(d.Name, bus, d.Address, opts...)
		}
	case "hamilton":
		switch d.Model {
		case "", "distributor":
			return hamilton.NewDistributor(d.Name, bus, d.Address, opts...)
		case "selector":
			ports := d.Ports
			if ports == 0 {
				ports = 8
			}
			return hamilton.NewSelector(d.Name, bus, ports, d.Address, opts...)
		}
	}
	return nil, fmt.Errorf("%w: driver %q has no model %q", ErrInvalidConfig, d.Driver, d.Model)
}
