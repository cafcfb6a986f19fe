// Package labflow automates heterogeneous laboratory hardware through a
// uniform API.
//
// Pumps, valves and sensors from different vendors speak different byte
// protocols over different lines, but all multi-port rotary valves share the
// same physics. labflow models that physics once (package valve), keeps the
// byte-level plumbing per vendor (devices/...), and exposes every instrument
// through one registry:
//
//	manager := labflow.NewManager()
//	manager.Register(v) // any driver, any vendor
//
//	d, err := manager.Get("reactor-selector")
//	cs, err := d.Controller().Position(ctx)
//
// The repository layers, leaves first:
//
//   - valve: topology description, connection-graph derivation, position
//     resolution, vendor code adapters, the switching controller.
//   - transport: termios serial I/O and the shared-bus round-trip lock for
//     daisy-chained devices.
//   - devices: vendor drivers (VICI, Hamilton) and YAML device profiles.
//   - internal/api: HTTP surface (chi) with prometheus metrics.
//   - internal/discovery: mDNS advertisement and bench-network browsing.
//   - internal/config: viper configuration binding devices to serial ports.
//   - cmd: the labflow CLI, including an interactive device console.
//
// See the valve package for the switching engine, which is where the actual
// problem lives; everything else is glue around it.
package labflow
