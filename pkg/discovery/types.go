package discovery

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Service types.
const (
	// ServiceTypeOSCQuery is the DNS-SD type of OSCQuery servers.
	ServiceTypeOSCQuery = "_oscjson._tcp"

	// ServiceTypeOSC is the DNS-SD type of plain OSC receivers.
	ServiceTypeOSC = "_osc._udp"

	// Domain is the mDNS domain.
	Domain = "local."

	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63
)

// TXT record keys of OSCQuery services.
const (
	TXTOSCPort      = "osc_port"
	TXTOSCTransport = "osc_transport"
)

// Discovery errors.
var (
	ErrNotFound            = errors.New("service not found")
	ErrInvalidService      = errors.New("invalid service")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 bytes")
)

// Service describes one advertisement.
type Service struct {
	// Instance is the instance name, usually the device name.
	Instance string

	// Type is the DNS-SD service type.
	Type string

	// Port is the advertised port.
	Port int

	// Text holds the TXT records.
	Text TXTRecordMap
}

// key identifies a service among the active advertisements.
func (s Service) key() string {
	return s.Instance + "." + s.Type
}

// Validate checks that the service can be advertised.
func (s Service) Validate() error {
	if s.Type == "" || s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("%w: type %q port %d", ErrInvalidService, s.Type, s.Port)
	}
	return ValidateInstanceName(s.Instance)
}

// ServiceEntry is a browsed service with its resolved addresses.
type ServiceEntry struct {
	Instance  string
	Type      string
	Host      string
	Port      int
	Addresses []string
	Text      TXTRecordMap
}

// TXTRecordMap maps TXT keys to values.
type TXTRecordMap map[string]string

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings. Keys without a value
// map to "".
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty instance name", ErrInvalidService)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

// InstanceName truncates name to a valid instance label.
func InstanceName(name string) string {
	if len(name) > MaxInstanceNameLen {
		return name[:MaxInstanceNameLen]
	}
	return name
}

// OSCQueryServices returns the two advertisements of an OSCQuery server.
func OSCQueryServices(device string, wsPort, oscPort int) []Service {
	name := InstanceName(device)
	return []Service{
		{
			Instance: name,
			Type:     ServiceTypeOSCQuery,
			Port:     wsPort,
			Text: TXTRecordMap{
				TXTOSCPort:      fmt.Sprint(oscPort),
				TXTOSCTransport: "UDP",
			},
		},
		{
			Instance: name,
			Type:     ServiceTypeOSC,
			Port:     oscPort,
		},
	}
}
