// Package protocol provides the network transports a device can be exposed
// through.
//
// A device created by the host surface always carries a [Multiplex]. Each
// exposure adds one sub-protocol to it:
//
//	mux := protocol.NewMultiplex()
//	dev := model.NewDevice("synth", mux)
//
//	osc, err := protocol.NewOSC(protocol.DefaultOSCConfig())
//	if err != nil {
//	    return err
//	}
//	mux.ExposeTo(osc)
//
// [OSC] speaks plain OSC 1.0 over UDP. [Minuit] speaks the Minuit
// request/answer dialect on top of OSC, which lets a peer browse the tree
// and query attributes. The OSCQuery transports live in package oscquery.
//
// OSC packets are encoded and decoded with github.com/hypebeast/go-osc.
package protocol
