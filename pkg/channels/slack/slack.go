// Package slack delivers alerts to Slack incoming webhooks.
package slack

import (
	"context"
	"fmt"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/channels/internal/format"
	"github.com/kart-io/alerthub/pkg/channels/internal/httpx"
	"github.com/kart-io/alerthub/pkg/logger"
)

// Slack accepts at most ten fields per section block.
const maxFieldsPerSection = 10

// Message is a Slack webhook payload.
type Message struct {
	Text    string  `json:"text,omitempty"`
	Blocks  []Block `json:"blocks,omitempty"`
	Channel string  `json:"channel,omitempty"`
}

// Block is a Block Kit block.
type Block struct {
	Type   string  `json:"type"`
	Text   *Text   `json:"text,omitempty"`
	Fields []*Text `json:"fields,omitempty"`
}

// Text is a Block Kit text object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Adapter posts alerts to one webhook.
type Adapter struct {
	webhookURL string
	channel    string
	routes     map[string]any
	action     string
	common     channel.Common
	client     *httpx.Client
	log        logger.Logger
}

// New builds a Slack adapter. webhook_url is required; channel, channels
// (a service/kind/action routing table) and action are optional.
func New(cfg channel.Config, log logger.Logger) (*Adapter, error) {
	if err := cfg.Require(channel.TypeSlack, "webhook_url"); err != nil {
		return nil, err
	}
	return &Adapter{
		webhookURL: cfg.String("webhook_url"),
		channel:    cfg.String("channel"),
		routes:     cfg.Map("channels"),
		action:     cfg.StringOr("action", "all"),
		common:     cfg.Common(),
		client:     httpx.New(channel.TypeSlack, cfg.Timeout(httpx.DefaultTimeout)),
		log:        logger.OrDiscard(log),
	}, nil
}

// Factory is the channel.Factory for Slack.
func Factory(cfg channel.Config, log logger.Logger) (channel.Adapter, error) {
	a, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Send implements channel.Adapter.
func (a *Adapter) Send(ctx context.Context, kind alert.Kind, event alert.Event) (*channel.Delivery, error) {
	msg := a.Build(kind, event)
	a.log.Debug("Posting to Slack", "kind", kind, "channel", msg.Channel)
	return a.client.PostJSON(ctx, a.webhookURL, msg)
}

// Build renders the webhook payload for event.
func (a *Adapter) Build(kind alert.Kind, event alert.Event) *Message {
	var msg *Message
	if a.common.Beauty {
		msg = buildBlocks(kind, event, a.common)
	} else {
		msg = &Message{Text: format.Plain(format.Entries(event, a.common.Specific, false, false))}
	}
	msg.Channel = a.route(kind)
	return msg
}

func (a *Adapter) route(kind alert.Kind) string {
	if a.channel != "" {
		return a.channel
	}
	if v, ok := format.Route(a.routes, a.common.Service, kind, a.action); ok {
		return fmt.Sprint(v)
	}
	return ""
}

func buildBlocks(kind alert.Kind, event alert.Event, common channel.Common) *Message {
	env := format.Environment(event, common)
	blocks := []Block{{
		Type: "header",
		Text: &Text{Type: "plain_text", Text: format.Header(kind, env)},
	}}

	var fields []*Text
	for _, e := range format.Entries(event, common.Specific, true, false) {
		label := e.Label()
		if e.Emoji == "" {
			label = "📝 " + label
		}
		if e.Nested {
			blocks = append(blocks, Block{
				Type: "section",
				Text: &Text{Type: "mrkdwn", Text: fmt.Sprintf("*%s:*\n```%s```", label, e.Pretty())},
			})
			continue
		}
		value := e.Text()
		if e.Code {
			value = "`" + value + "`"
		}
		fields = append(fields, &Text{Type: "mrkdwn", Text: fmt.Sprintf("*%s:*\n%s", label, value)})
	}

	for start := 0; start < len(fields); start += maxFieldsPerSection {
		end := min(start+maxFieldsPerSection, len(fields))
		blocks = append(blocks, Block{Type: "section", Fields: fields[start:end]})
	}
	return &Message{Blocks: blocks}
}
