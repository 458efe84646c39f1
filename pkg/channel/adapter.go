// Package channel defines the contract between the hub and the per-service
// channel adapters: the Adapter interface, the Factory used to build one from
// a layered Config, and the static type table mapping tags to factories.
package channel

import (
	"context"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/logger"
)

// Adapter delivers alerts to one external service.
//
// Send formats event for the service according to kind and performs a single
// outbound call. It returns an error carrying a readable message when the
// delivery fails. Implementations must be safe for concurrent use; the hub
// reuses one adapter across dispatches.
type Adapter interface {
	Send(ctx context.Context, kind alert.Kind, event alert.Event) (*Delivery, error)
}

// Factory builds an adapter from its effective configuration. It returns a
// configuration error when a required setting (secret, URL, ID) is missing.
type Factory func(cfg Config, log logger.Logger) (Adapter, error)

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(ctx context.Context, kind alert.Kind, event alert.Event) (*Delivery, error)

// Send calls f.
func (f AdapterFunc) Send(ctx context.Context, kind alert.Kind, event alert.Event) (*Delivery, error) {
	return f(ctx, kind, event)
}

// Delivery describes a successful send.
type Delivery struct {
	MessageID  string `json:"message_id,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Response   string `json:"response,omitempty"`
}

// Descriptor declares one channel: which adapter to build and its settings.
type Descriptor struct {
	Type   string `json:"type" yaml:"type"`
	Config Config `json:"config,omitempty" yaml:"config,omitempty"`
}

// Info is the non-sensitive view of a registered channel.
type Info struct {
	Type        string `json:"type"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
}
