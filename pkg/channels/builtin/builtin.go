// Package builtin wires the bundled channel adapters into a registry.
package builtin

import (
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/channels/discord"
	"github.com/kart-io/alerthub/pkg/channels/email"
	"github.com/kart-io/alerthub/pkg/channels/mattermost"
	"github.com/kart-io/alerthub/pkg/channels/rocketchat"
	"github.com/kart-io/alerthub/pkg/channels/slack"
	"github.com/kart-io/alerthub/pkg/channels/telegram"
	"github.com/kart-io/alerthub/pkg/channels/webhook"
)

// Registry returns a fresh registry holding every bundled adapter.
func Registry() *channel.Registry {
	return channel.NewRegistry().
		Register(channel.TypeSlack, slack.Factory).
		Register(channel.TypeDiscord, discord.Factory).
		Register(channel.TypeTelegram, telegram.Factory).
		Register(channel.TypeEmail, email.Factory).
		Register(channel.TypeMattermost, mattermost.Factory).
		Register(channel.TypeRocketChat, rocketchat.Factory).
		Register(channel.TypeWebhook, webhook.Factory(channel.TypeWebhook)).
		Register(channel.TypeN8N, webhook.Factory(channel.TypeN8N))
}
