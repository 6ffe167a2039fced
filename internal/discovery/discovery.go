// Package discovery declares how the receiver announces itself on the
// local network. Only the interface is implemented here; a real mDNS or
// QR-code advertiser is out of scope (see the module's design notes).
package discovery

import "context"

// Advertiser announces the receiver's presence so senders can find it.
// Start blocks until ctx is canceled or a fatal error occurs.
type Advertiser interface {
	Start(ctx context.Context) error
	Name() string
}

// Noop satisfies Advertiser without announcing anything; it exists so the
// server can be wired against the interface before a real advertiser is
// chosen.
type Noop struct{}

func (Noop) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (Noop) Name() string { return "noop" }
