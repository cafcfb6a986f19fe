// Package discovery announces and finds labflow servers on the bench
// network via mDNS.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// Service is the mDNS service type labflow servers register under.
const Service = "_labflow._tcp"

// Advertiser keeps one mDNS registration alive until closed.
type Advertiser struct {
	server *mdns.Server
}

// Advertise registers this server on the local network. The info strings
// become the TXT record, typically "version=..." and "devices=...". The
// host name is left to mdns, which falls back to the system hostname.
func Advertise(instance string, port int, info []string) (*Advertiser, error) {
	service, err := mdns.NewMDNSService(instance, Service, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("building mdns service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("starting mdns server: %w", err)
	}
	return &Advertiser{server: server}, nil
}

// Close withdraws the registration.
func (a *Advertiser) Close() error {
	return a.server.Shutdown()
}

// Instance is one labflow server seen on the network.
type Instance struct {
	Name string
	Host string
	Addr net.IP
	Port int
	Info []string
}

func fromEntry(e *mdns.ServiceEntry) Instance {
	addr := e.AddrV4
	if addr == nil {
		addr = e.AddrV6
	}
	return Instance{
		Name: strings.TrimSuffix(e.Name, "."+Service+".local."),
		Host: e.Host,
		Addr: addr,
		Port: e.Port,
		Info: e.InfoFields,
	}
}

// Browse queries the local network for labflow servers, collecting answers
// until the timeout expires or the context is cancelled.
func Browse(ctx context.Context, timeout time.Duration) ([]Instance, error) {
	entries := make(chan *mdns.ServiceEntry, 16)

	errc := make(chan error, 1)
	go func() {
		params := &mdns.QueryParam{
			Service:             Service,
			Domain:              "local",
			Timeout:             timeout,
			Entries:             entries,
			DisableIPv6:         true,
			WantUnicastResponse: true,
		}
		errc <- mdns.Query(params)
		close(entries)
	}()

	var found []Instance
	for {
		select {
		case <-ctx.Done():
			return found, ctx.Err()
		case entry, ok := <-entries:
			if !ok {
				return found, <-errc
			}
			found = append(found, fromEntry(entry))
		}
	}
}
