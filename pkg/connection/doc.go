// Package connection supervises the network link of a mirrored device.
//
// A [Supervisor] dials a [Link], watches it and redials with exponential
// backoff when the link drops:
//
//	sup := connection.NewSupervisor(dial, connection.DefaultConfig())
//	if err := sup.Start(ctx); err != nil {
//	    return err // first dial failed
//	}
//	defer sup.Close()
//
// The first dial is synchronous so callers see connection errors
// immediately. Later attempts run in the background, spaced by a
// [Backoff]:
//
//	delay = base + random(0, base * jitter)
//
// where base starts at Config.Backoff.Initial, is multiplied after every
// failed attempt and is capped at Config.Backoff.Max. A successful dial
// resets it.
package connection
