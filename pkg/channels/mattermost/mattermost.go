// Package mattermost posts alerts through the Mattermost REST API.
package mattermost

import (
	"context"
	"strings"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/channels/internal/format"
	"github.com/kart-io/alerthub/pkg/channels/internal/httpx"
	"github.com/kart-io/alerthub/pkg/logger"
)

const (
	postsPath = "/api/v4/posts"
	divider   = "------------------------"
)

// Post is the body of POST /api/v4/posts.
type Post struct {
	ChannelID string `json:"channel_id"`
	Message   string `json:"message"`
}

// Adapter posts alerts as a bot user into one channel.
type Adapter struct {
	endpoint  string
	channelID string
	common    channel.Common
	client    *httpx.Client
	log       logger.Logger
}

// New builds a Mattermost adapter. url, token and chat_id are required.
func New(cfg channel.Config, log logger.Logger) (*Adapter, error) {
	if err := cfg.Require(channel.TypeMattermost, "url", "token", "chat_id"); err != nil {
		return nil, err
	}
	client := httpx.New(channel.TypeMattermost, cfg.Timeout(httpx.DefaultTimeout)).
		WithHeader("Authorization", "Bearer "+cfg.String("token"))
	return &Adapter{
		endpoint:  strings.TrimRight(cfg.String("url"), "/") + postsPath,
		channelID: cfg.String("chat_id"),
		common:    cfg.Common(),
		client:    client,
		log:       logger.OrDiscard(log),
	}, nil
}

// Factory is the channel.Factory for Mattermost.
func Factory(cfg channel.Config, log logger.Logger) (channel.Adapter, error) {
	a, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Send implements channel.Adapter.
func (a *Adapter) Send(ctx context.Context, kind alert.Kind, event alert.Event) (*channel.Delivery, error) {
	d, err := a.client.PostJSON(ctx, a.endpoint, &Post{ChannelID: a.channelID, Message: a.Format(kind, event)})
	if err != nil {
		return nil, err
	}
	d.MessageID = httpx.DecodeID(d.Response, "id")
	return d, nil
}

// Format renders the markdown message for event.
func (a *Adapter) Format(kind alert.Kind, event alert.Event) string {
	env := format.Environment(event, a.common)
	if !a.common.Beauty {
		lines := []string{kind.Emoji() + " Environment: " + env}
		for _, e := range format.Entries(event, nil, false, false) {
			lines = append(lines, e.Key+": `"+e.Text()+"`")
		}
		return strings.Join(lines, "\n")
	}

	lines := []string{
		divider,
		"**[Alert]**",
		kind.Emoji() + " **Environment:** `" + env + "`",
	}
	for _, e := range format.Entries(event, a.common.Specific, true, true) {
		if e.Key == "curl" || e.Key == "curl_command" {
			continue
		}
		if e.Nested {
			lines = append(lines, "**"+e.Title+":**", "```json", e.Pretty(), "```")
			continue
		}
		lines = append(lines, "**"+e.Title+":** `"+e.Text()+"`")
	}
	curl := event.String("curl")
	if curl == "" {
		curl = event.String("curl_command")
	}
	if curl != "" {
		lines = append(lines, "", "**Curl Command:**", "```bash", curl, "```")
	}
	lines = append(lines, divider)
	return strings.Join(lines, "\n")
}
