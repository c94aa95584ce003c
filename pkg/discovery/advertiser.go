package discovery

import (
	"context"
	"time"
)

// Advertiser publishes services over DNS-SD.
type Advertiser interface {
	// Advertise starts advertising svc. Advertising the same instance and
	// type again replaces the previous advertisement.
	Advertise(ctx context.Context, svc Service) error

	// Stop withdraws one advertisement.
	Stop(instance, serviceType string) error

	// StopAll withdraws every advertisement.
	StopAll()
}

// Browser finds services over DNS-SD.
type Browser interface {
	// Browse emits services of the given type until ctx is done.
	Browse(ctx context.Context, serviceType string) (<-chan *ServiceEntry, error)
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Interface: "",
		TTL:       120 * time.Second,
	}
}
