package hub

import (
	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/channels/builtin"
	"github.com/kart-io/alerthub/pkg/errors"
	"github.com/kart-io/alerthub/pkg/logger"
	"github.com/kart-io/alerthub/pkg/observability"
	"github.com/kart-io/alerthub/pkg/receipt"
)

// DefaultHealthCheckMessage is the message of the synthetic health-check alert.
const DefaultHealthCheckMessage = "✅ MultiChannelAlert Health Check"

// Options holds everything a Hub is built from.
type Options struct {
	Channels           []channel.Descriptor
	Service            string
	Environment        string
	FailSilently       bool
	Beauty             bool
	Specific           []alert.FieldSpec
	StrictMode         bool
	HealthCheck        bool
	HealthCheckMessage string

	Logger    logger.Logger
	Telemetry *observability.Telemetry
	Store     receipt.Store
	Registry  *channel.Registry
}

// Option configures a Hub.
type Option func(*Options) error

func defaultOptions() *Options {
	return &Options{
		Service:            channel.DefaultService,
		Environment:        channel.DefaultEnvironment,
		FailSilently:       true,
		Beauty:             true,
		HealthCheckMessage: DefaultHealthCheckMessage,
	}
}

// WithChannels appends channel descriptors.
func WithChannels(descriptors ...channel.Descriptor) Option {
	return func(o *Options) error {
		o.Channels = append(o.Channels, descriptors...)
		return nil
	}
}

// WithChannel appends one channel of type tag.
func WithChannel(tag string, cfg channel.Config) Option {
	return WithChannels(channel.Descriptor{Type: tag, Config: cfg})
}

// WithService sets the global service name.
func WithService(service string) Option {
	return func(o *Options) error {
		o.Service = service
		return nil
	}
}

// WithEnvironment sets the global environment label.
func WithEnvironment(env string) Option {
	return func(o *Options) error {
		o.Environment = env
		return nil
	}
}

// WithFailSilently controls whether channel failures are only reported
// (true, the default) or also returned as an aggregate error.
func WithFailSilently(silent bool) Option {
	return func(o *Options) error {
		o.FailSilently = silent
		return nil
	}
}

// WithBeauty toggles rich formatting for every channel that does not
// override it.
func WithBeauty(beauty bool) Option {
	return func(o *Options) error {
		o.Beauty = beauty
		return nil
	}
}

// WithSpecific sets the global field allow-list.
func WithSpecific(specs ...alert.FieldSpec) Option {
	return func(o *Options) error {
		o.Specific = append([]alert.FieldSpec(nil), specs...)
		return nil
	}
}

// WithStrictMode restricts each channel's payload to its allow-list.
func WithStrictMode(strict bool) Option {
	return func(o *Options) error {
		o.StrictMode = strict
		return nil
	}
}

// WithHealthCheck fires a health-check alert in the background once the
// hub is built.
func WithHealthCheck(enabled bool) Option {
	return func(o *Options) error {
		o.HealthCheck = enabled
		return nil
	}
}

// WithHealthCheckMessage overrides the health-check message.
func WithHealthCheckMessage(msg string) Option {
	return func(o *Options) error {
		if msg == "" {
			return errors.New(errors.ErrInvalidConfig, "health check message cannot be empty")
		}
		o.HealthCheckMessage = msg
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Options) error {
		o.Logger = l
		return nil
	}
}

// WithTelemetry sets the tracing and metrics sink.
func WithTelemetry(t *observability.Telemetry) Option {
	return func(o *Options) error {
		o.Telemetry = t
		return nil
	}
}

// WithReceiptStore keeps every dispatch report in s. The hub closes s on Close.
func WithReceiptStore(s receipt.Store) Option {
	return func(o *Options) error {
		o.Store = s
		return nil
	}
}

// WithRegistry replaces the type table used to build channels.
func WithRegistry(r *channel.Registry) Option {
	return func(o *Options) error {
		if r == nil {
			return errors.New(errors.ErrInvalidConfig, "registry cannot be nil")
		}
		o.Registry = r
		return nil
	}
}

// WithFactory registers an extra adapter type on top of the current table.
// The table passed to WithRegistry is copied, not modified.
func WithFactory(tag string, f channel.Factory) Option {
	return func(o *Options) error {
		if f == nil {
			return errors.New(errors.ErrInvalidConfig, "factory cannot be nil").WithChannel(tag)
		}
		if o.Registry == nil {
			o.Registry = builtin.Registry()
		} else {
			o.Registry = o.Registry.Clone()
		}
		o.Registry.Register(tag, f)
		return nil
	}
}

func (o *Options) common() channel.Common {
	return channel.Common{
		Service:     o.Service,
		Environment: o.Environment,
		Beauty:      o.Beauty,
		Specific:    o.Specific,
		StrictMode:  o.StrictMode,
	}
}
