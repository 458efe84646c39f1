// Package rocketchat delivers alerts to Rocket.Chat incoming webhooks.
package rocketchat

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/channels/internal/format"
	"github.com/kart-io/alerthub/pkg/channels/internal/httpx"
	"github.com/kart-io/alerthub/pkg/logger"
)

// Message is a Rocket.Chat webhook payload.
type Message struct {
	Text        string       `json:"text"`
	Username    string       `json:"username,omitempty"`
	Channel     string       `json:"channel,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment carries the remaining fields with the kind color.
type Attachment struct {
	Color  string  `json:"color"`
	Title  string  `json:"title,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// Field is one attachment field.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// fields rendered in the text body rather than the attachment.
var headline = map[string]bool{"message": true, "error_message": true, "error_code": true}

// Adapter posts alerts to one webhook.
type Adapter struct {
	webhookURL string
	username   string
	channel    string
	common     channel.Common
	client     *httpx.Client
	log        logger.Logger
}

// New builds a Rocket.Chat adapter. webhook_url is required.
func New(cfg channel.Config, log logger.Logger) (*Adapter, error) {
	if err := cfg.Require(channel.TypeRocketChat, "webhook_url"); err != nil {
		return nil, err
	}
	return &Adapter{
		webhookURL: cfg.String("webhook_url"),
		username:   cfg.StringOr("username", "AlertBot"),
		channel:    cfg.String("channel"),
		common:     cfg.Common(),
		client:     httpx.New(channel.TypeRocketChat, cfg.Timeout(httpx.DefaultTimeout)),
		log:        logger.OrDiscard(log),
	}, nil
}

// Factory is the channel.Factory for Rocket.Chat.
func Factory(cfg channel.Config, log logger.Logger) (channel.Adapter, error) {
	a, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Send implements channel.Adapter.
func (a *Adapter) Send(ctx context.Context, kind alert.Kind, event alert.Event) (*channel.Delivery, error) {
	return a.client.PostJSON(ctx, a.webhookURL, a.Build(kind, event))
}

// Build renders the webhook payload for event.
func (a *Adapter) Build(kind alert.Kind, event alert.Event) *Message {
	msg := &Message{Username: a.username, Channel: a.channel}
	if !a.common.Beauty {
		b, err := json.MarshalIndent(event, "", "  ")
		if err != nil {
			msg.Text = format.Plain(format.Entries(event, nil, false, false))
		} else {
			msg.Text = string(b)
		}
		return msg
	}

	env := format.Environment(event, a.common)
	var text strings.Builder
	text.WriteString(kind.Emoji() + " **" + env + " Alert** - " + strings.ToUpper(a.common.Service) + "\n\n")
	if m := event.Message(); m != "" {
		text.WriteString("**📝 Message:**\n" + m + "\n\n")
	}
	if code := event.String("error_code"); code != "" {
		text.WriteString("**❌ Error Code:** `" + code + "`\n")
	}
	msg.Text = strings.TrimRight(text.String(), "\n")

	att := Attachment{Color: kind.HexColor(), Title: kind.Title()}
	for _, e := range format.Entries(event, a.common.Specific, true, true) {
		if headline[e.Key] {
			continue
		}
		att.Fields = append(att.Fields, Field{Title: e.Label(), Value: e.Text(), Short: !e.Nested})
	}
	msg.Attachments = []Attachment{att}
	return msg
}
