// Package oscquery implements both sides of the OSCQuery protocol.
//
// A [Server] exposes a local device: the namespace is served as JSON over
// HTTP, clients stream values over a websocket after sending a LISTEN
// command, and plain OSC values are accepted over UDP. The server can be
// announced over DNS-SD through a discovery.Advertiser.
//
// A [Mirror] is the client side. Update fetches the remote namespace and
// builds the matching local tree:
//
//	m, err := oscquery.NewMirror(oscquery.DefaultMirrorConfig("ws://10.0.0.2:5678"))
//	if err != nil {
//	    return err
//	}
//	dev := model.NewDevice("remote", m)
//	if err := m.Update(dev.Root()); err != nil {
//	    return err
//	}
//
// The mirror keeps its websocket connection alive with a
// connection.Supervisor and falls back to UDP while it is down.
package oscquery
