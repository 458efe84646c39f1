// Package handlers implements the alert API on top of a hub.
package handlers

import (
	"context"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/monitoring"
	"github.com/kart-io/alerthub/pkg/receipt"
)

// Hub is the part of *hub.Hub the handlers use.
type Hub interface {
	Dispatch(ctx context.Context, kind alert.Kind, event alert.Event) (*receipt.Report, error)
	HealthCheck(ctx context.Context) (*receipt.Report, error)
	Channels() []channel.Info
	Service() string
	Environment() string
	Store() receipt.Store
	Stats() monitoring.Snapshot
}
