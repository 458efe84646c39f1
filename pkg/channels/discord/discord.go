// Package discord delivers alerts to Discord webhooks.
package discord

import (
	"context"
	"strings"
	"time"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/channels/internal/format"
	"github.com/kart-io/alerthub/pkg/channels/internal/httpx"
	"github.com/kart-io/alerthub/pkg/logger"
)

// Discord limits.
const (
	maxFields     = 25
	maxFieldValue = 1024
)

// Message is a Discord webhook payload.
type Message struct {
	Content  string  `json:"content,omitempty"`
	Username string  `json:"username,omitempty"`
	Embeds   []Embed `json:"embeds,omitempty"`
}

// Embed is a rich Discord embed.
type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color"`
	Timestamp   string  `json:"timestamp"`
	Fields      []Field `json:"fields,omitempty"`
}

// Field is one embed field.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Adapter posts alerts to one Discord webhook.
type Adapter struct {
	webhookURL string
	username   string
	common     channel.Common
	client     *httpx.Client
	log        logger.Logger
	now        func() time.Time
}

// New builds a Discord adapter. webhook_url is required.
func New(cfg channel.Config, log logger.Logger) (*Adapter, error) {
	if err := cfg.Require(channel.TypeDiscord, "webhook_url"); err != nil {
		return nil, err
	}
	return &Adapter{
		webhookURL: cfg.String("webhook_url"),
		username:   cfg.String("username"),
		common:     cfg.Common(),
		client:     httpx.New(channel.TypeDiscord, cfg.Timeout(httpx.DefaultTimeout)),
		log:        logger.OrDiscard(log),
		now:        time.Now,
	}, nil
}

// Factory is the channel.Factory for Discord.
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
	env := format.Environment(event, a.common)
	msg := &Message{Username: a.username}

	if !a.common.Beauty {
		lines := []string{kind.Emoji() + " Environment: " + env}
		for _, e := range format.Entries(event, nil, false, false) {
			lines = append(lines, e.Key+": "+e.Text())
		}
		msg.Content = strings.Join(lines, "\n")
		return msg
	}

	embed := Embed{
		Title:     format.Header(kind, env),
		Color:     kind.Color(),
		Timestamp: a.now().UTC().Format(time.RFC3339),
	}
	for _, e := range format.Entries(event, a.common.Specific, true, true) {
		if len(embed.Fields) == maxFields {
			break
		}
		name := e.Key
		if e.Title != alert.Humanize(e.Key) {
			name = e.Title
		}
		embed.Fields = append(embed.Fields, Field{
			Name:   name,
			Value:  truncate("`"+e.Text()+"`", maxFieldValue),
			Inline: true,
		})
	}
	if m := event.Message(); m != "" {
		embed.Description = "📝 **Message:**\n```" + m + "```"
	}
	msg.Embeds = []Embed{embed}
	return msg
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
