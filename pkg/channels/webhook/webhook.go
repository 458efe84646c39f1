// Package webhook delivers alerts to generic JSON webhooks such as n8n
// workflows. The payload is either a structured alert document or the
// output of a mustache template.
package webhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cbroglie/mustache"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/channels/internal/format"
	"github.com/kart-io/alerthub/pkg/channels/internal/httpx"
	"github.com/kart-io/alerthub/pkg/errors"
	"github.com/kart-io/alerthub/pkg/logger"
)

// Payload is the structured document posted when beauty is on.
type Payload struct {
	Alert Header         `json:"alert"`
	Data  map[string]any `json:"data"`
}

// Header summarizes the alert for workflow routing.
type Header struct {
	Timestamp   string `json:"timestamp"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
	Severity    string `json:"severity"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
}

// Severity maps a kind to the severity label used by workflows.
func Severity(kind alert.Kind) string {
	switch kind {
	case alert.KindError:
		return "high"
	case alert.KindWarn:
		return "medium"
	case alert.KindInfo:
		return "low"
	case alert.KindSuccess:
		return "info"
	}
	return "medium"
}

// Adapter posts alerts to one webhook.
type Adapter struct {
	channelType string
	webhookURL  string
	template    *mustache.Template
	common      channel.Common
	client      *httpx.Client
	log         logger.Logger
	now         func() time.Time
}

// New builds a webhook adapter for channelType (webhook or n8n).
// webhook_url is required; template, headers, api_key and secret are
// optional. With a secret every body is signed (see httpx.Signer).
func New(channelType string, cfg channel.Config, log logger.Logger) (*Adapter, error) {
	if err := cfg.Require(channelType, "webhook_url"); err != nil {
		return nil, err
	}
	a := &Adapter{
		channelType: channelType,
		webhookURL:  cfg.String("webhook_url"),
		common:      cfg.Common(),
		client:      httpx.New(channelType, cfg.Timeout(httpx.DefaultTimeout)),
		log:         logger.OrDiscard(log),
		now:         time.Now,
	}
	if src := cfg.String("template"); src != "" {
		tmpl, err := mustache.ParseString(src)
		if err != nil {
			return nil, errors.NewConfigurationError(channelType, "invalid template").
				WithDetails(err.Error()).
				WithCause(err)
		}
		a.template = tmpl
	}
	for k, v := range cfg.Map("headers") {
		if s, ok := v.(string); ok {
			a.client.WithHeader(k, s)
		}
	}
	if key := cfg.String("api_key"); key != "" {
		a.client.WithHeader("Authorization", "Bearer "+key)
	}
	if secret := cfg.String("secret"); secret != "" {
		a.client.WithSigner(httpx.NewSigner(secret))
	}
	return a, nil
}

// Factory returns the channel.Factory for channelType.
func Factory(channelType string) channel.Factory {
	return func(cfg channel.Config, log logger.Logger) (channel.Adapter, error) {
		a, err := New(channelType, cfg, log)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

// Send implements channel.Adapter.
func (a *Adapter) Send(ctx context.Context, kind alert.Kind, event alert.Event) (*channel.Delivery, error) {
	if a.template == nil {
		return a.client.PostJSON(ctx, a.webhookURL, a.Build(kind, event))
	}
	body, err := a.Render(kind, event)
	if err != nil {
		return nil, err
	}
	contentType := "text/plain; charset=utf-8"
	if json.Valid([]byte(body)) {
		contentType = "application/json"
	}
	return a.client.Post(ctx, a.webhookURL, contentType, []byte(body))
}

// Build renders the default JSON document.
func (a *Adapter) Build(kind alert.Kind, event alert.Event) any {
	ts := a.now().UTC().Format(time.RFC3339)
	env := format.Environment(event, a.common)

	if !a.common.Beauty {
		flat := map[string]any{
			"timestamp":   ts,
			"service":     a.common.Service,
			"environment": env,
			"type":        string(kind),
		}
		for k, v := range event {
			if v != nil {
				flat[k] = v
			}
		}
		return flat
	}

	p := &Payload{
		Alert: Header{
			Timestamp:   ts,
			Service:     a.common.Service,
			Environment: env,
			Severity:    Severity(kind),
			Type:        string(kind),
			Status:      "active",
			Message:     event.Message(),
			ErrorCode:   event.String("error_code"),
		},
		Data: make(map[string]any, len(event)),
	}
	for _, e := range format.Entries(event, a.common.Specific, true, true) {
		key := e.Key
		if e.Title != alert.Humanize(e.Key) {
			key = e.Title
		}
		p.Data[key] = e.Value
	}
	return p
}

// Render executes the configured template. The context exposes the event
// fields at the top level plus kind, severity, service, environment,
// timestamp and the whole event as data.
func (a *Adapter) Render(kind alert.Kind, event alert.Event) (string, error) {
	ctx := make(map[string]any, len(event)+6)
	for k, v := range event {
		ctx[k] = v
	}
	ctx["kind"] = string(kind)
	ctx["severity"] = Severity(kind)
	ctx["service"] = a.common.Service
	ctx["environment"] = format.Environment(event, a.common)
	ctx["timestamp"] = a.now().UTC().Format(time.RFC3339)
	ctx["data"] = map[string]any(event)

	out, err := a.template.Render(ctx)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrMessageEncoding, "failed to render template").
			WithChannel(a.channelType).
			WithDetails(err.Error())
	}
	return out, nil
}
