// Package telegram delivers alerts through the Telegram Bot API.
package telegram

import (
	"context"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/channels/internal/format"
	"github.com/kart-io/alerthub/pkg/errors"
	"github.com/kart-io/alerthub/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second
	// Telegram rejects messages longer than this many characters.
	textLimit = 4096
)

// chatRecipient addresses a chat by numeric ID or @username.
type chatRecipient string

func (c chatRecipient) Recipient() string { return string(c) }

// Adapter sends alerts to one chat.
type Adapter struct {
	bot                 *tele.Bot
	chat                chatRecipient
	threads             map[string]any
	threadID            int
	action              string
	disableNotification bool
	common              channel.Common
	log                 logger.Logger
}

// New builds a Telegram adapter. bot_token and chat_id are required.
// message_thread_id pins a forum topic; message_thread_ids routes by
// service, kind and action. api_url overrides the Bot API endpoint.
func New(cfg channel.Config, log logger.Logger) (*Adapter, error) {
	if err := cfg.Require(channel.TypeTelegram, "bot_token", "chat_id"); err != nil {
		return nil, err
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.String("bot_token"),
		URL:     cfg.String("api_url"),
		Client:  &http.Client{Timeout: cfg.Timeout(defaultTimeout)},
		Offline: true,
	})
	if err != nil {
		return nil, errors.NewConfigurationError(channel.TypeTelegram, "failed to create bot").
			WithDetails(err.Error()).
			WithCause(err)
	}
	return &Adapter{
		bot:                 bot,
		chat:                chatRecipient(cfg.String("chat_id")),
		threads:             cfg.Map("message_thread_ids"),
		threadID:            cfg.Int("message_thread_id", 0),
		action:              cfg.StringOr("action", "all"),
		disableNotification: cfg.Bool("disable_notification", false),
		common:              cfg.Common(),
		log:                 logger.OrDiscard(log),
	}, nil
}

// Factory is the channel.Factory for Telegram.
func Factory(cfg channel.Config, log logger.Logger) (channel.Adapter, error) {
	a, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

type sendResult struct {
	msg *tele.Message
	err error
}

// Send implements channel.Adapter.
//
// The Bot API client takes no context, so the request runs in its own
// goroutine. Send returns as soon as ctx is done; the abandoned request is
// still bounded by the channel timeout.
func (a *Adapter) Send(ctx context.Context, kind alert.Kind, event alert.Event) (*channel.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := &tele.SendOptions{
		ThreadID:            a.thread(kind),
		DisableNotification: a.disableNotification,
	}
	if a.common.Beauty {
		opts.ParseMode = tele.ModeHTML
	}
	text := a.Format(kind, event)

	done := make(chan sendResult, 1)
	go func() {
		msg, err := a.bot.Send(a.chat, text, opts)
		done <- sendResult{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.NewDeliveryError(channel.TypeTelegram, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, errors.NewDeliveryError(channel.TypeTelegram, res.err)
		}
		return &channel.Delivery{MessageID: strconv.Itoa(res.msg.ID)}, nil
	}
}

func (a *Adapter) thread(kind alert.Kind) int {
	if a.threadID != 0 {
		return a.threadID
	}
	v, ok := format.Route(a.threads, a.common.Service, kind, a.action)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	}
	return 0
}

// Format renders the message text; HTML when beauty is on.
func (a *Adapter) Format(kind alert.Kind, event alert.Event) string {
	entries := format.Entries(event, a.common.Specific, a.common.Beauty, false)
	if !a.common.Beauty {
		return clip(format.Plain(entries))
	}

	env := format.Environment(event, a.common)
	lines := []string{"<b>" + html.EscapeString(format.Header(kind, env)) + "</b>", ""}
	for _, e := range entries {
		label := html.EscapeString(e.Label())
		switch {
		case e.Nested:
			lines = append(lines, "📋 <b>"+label+":</b>", "<pre>"+html.EscapeString(e.Pretty())+"</pre>")
		case e.Key == "stack" || e.Key == "stack_trace":
			lines = append(lines, "<b>"+label+":</b>", "<pre>"+html.EscapeString(e.Text())+"</pre>")
		case e.Code:
			lines = append(lines, "📝 <b>"+label+":</b> <code>"+html.EscapeString(e.Text())+"</code>")
		default:
			lines = append(lines, "<b>"+label+":</b> "+html.EscapeString(e.Text()))
		}
	}
	return clip(strings.Join(lines, "\n"))
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= textLimit {
		return s
	}
	return string(r[:textLimit-1]) + "…"
}
