// Package discovery advertises and browses exposed devices over
// mDNS/DNS-SD.
//
// Two service types are used:
//
// # OSCQuery (_oscjson._tcp)
//
// An OSCQuery server advertises its HTTP/websocket port. The instance name
// is the device name. TXT records carry the OSC port ("osc_port") and its
// transport ("osc_transport", always UDP).
//
// # Plain OSC (_osc._udp)
//
// The UDP port an OSCQuery server receives values on is also advertised as
// a plain OSC service so that OSC-only tools can find it.
//
// Advertising uses github.com/enbility/zeroconf/v3.
package discovery
