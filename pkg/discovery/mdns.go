package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// MDNSAdvertiser implements the Advertiser interface using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu      sync.Mutex
	servers map[string]*zeroconf.Server // keyed by instance.type
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{
		config:  config,
		servers: make(map[string]*zeroconf.Server),
	}
}

// Advertise registers svc on the configured interfaces.
func (a *MDNSAdvertiser) Advertise(_ context.Context, svc Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if server, exists := a.servers[svc.key()]; exists {
		server.Shutdown()
		delete(a.servers, svc.key())
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		svc.Instance,
		svc.Type,
		Domain,
		svc.Port,
		TXTRecordsToStrings(svc.Text),
		interfaces(a.config.Interface),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", svc.Type, err)
	}

	a.servers[svc.key()] = server
	return nil
}

// Stop withdraws one advertisement.
func (a *MDNSAdvertiser) Stop(instance, serviceType string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := Service{Instance: instance, Type: serviceType}.key()
	server, exists := a.servers[key]
	if !exists {
		return ErrNotFound
	}
	server.Shutdown()
	delete(a.servers, key)
	return nil
}

// StopAll withdraws every advertisement.
func (a *MDNSAdvertiser) StopAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key, server := range a.servers {
		server.Shutdown()
		delete(a.servers, key)
	}
}

// Active returns the number of live advertisements.
func (a *MDNSAdvertiser) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.servers)
}

// interfaces returns the network interfaces to use. nil means all.
func interfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// MDNSBrowser implements the Browser interface using zeroconf.
type MDNSBrowser struct {
	config AdvertiserConfig
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config AdvertiserConfig) *MDNSBrowser {
	return &MDNSBrowser{config: config}
}

// Browse searches for services of serviceType. Services are aggregated by
// instance name: addresses seen on several interfaces are merged into one
// entry, and an entry is emitted once.
func (b *MDNSBrowser) Browse(ctx context.Context, serviceType string) (<-chan *ServiceEntry, error) {
	out := make(chan *ServiceEntry)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if ifaces := interfaces(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	go func() {
		defer close(out)

		services := make(map[string]*ServiceEntry)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := toServiceEntry(entry, serviceType)
				if existing, found := services[svc.Instance]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				services[svc.Instance] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entryAddresses(entry))
					if len(existing.Addresses) == 0 {
						delete(services, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, serviceType, Domain, entries, removed, opts...)
	}()

	return out, nil
}

func toServiceEntry(entry *zeroconf.ServiceEntry, serviceType string) *ServiceEntry {
	return &ServiceEntry{
		Instance:  entry.Instance,
		Type:      serviceType,
		Host:      entry.HostName,
		Port:      entry.Port,
		Addresses: entryAddresses(entry),
		Text:      StringsToTXTRecords(entry.Text),
	}
}

func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses drops every address in gone from addresses.
func removeAddresses(addresses, gone []string) []string {
	toRemove := make(map[string]bool, len(gone))
	for _, a := range gone {
		toRemove[a] = true
	}
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}

var (
	_ Advertiser = (*MDNSAdvertiser)(nil)
	_ Browser    = (*MDNSBrowser)(nil)
)
