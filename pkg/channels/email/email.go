// Package email delivers alerts over SMTP.
package email

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/channels/internal/format"
	"github.com/kart-io/alerthub/pkg/errors"
	"github.com/kart-io/alerthub/pkg/logger"
)

const (
	defaultTimeout = 30 * time.Second
	defaultPort    = 587
	sslPort        = 465
)

// Server is the resolved SMTP endpoint.
type Server struct {
	Host     string
	Port     int
	Username string
	Password string
	SSL      bool
	TLS      bool
}

// sender is the part of *mail.Client the adapter uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Adapter mails alerts to a fixed recipient list.
type Adapter struct {
	server    Server
	from      string
	to        []string
	timeout   time.Duration
	common    channel.Common
	log       logger.Logger
	now       func() time.Time
	newSender func() (sender, error)
}

// New builds an email adapter. It needs from, to and either smtp_url or
// host, user and password.
func New(cfg channel.Config, log logger.Logger) (*Adapter, error) {
	server, err := parseServer(cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Require(channel.TypeEmail, "from"); err != nil {
		return nil, err
	}
	to := recipients(cfg["to"])
	if len(to) == 0 {
		return nil, errors.NewMissingConfig(channel.TypeEmail, "to")
	}
	a := &Adapter{
		server:  server,
		from:    cfg.String("from"),
		to:      to,
		timeout: cfg.Timeout(defaultTimeout),
		common:  cfg.Common(),
		log:     logger.OrDiscard(log),
		now:     time.Now,
	}
	a.newSender = a.dial
	return a, nil
}

// Factory is the channel.Factory for email.
func Factory(cfg channel.Config, log logger.Logger) (channel.Adapter, error) {
	a, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func parseServer(cfg channel.Config) (Server, error) {
	if raw := cfg.String("smtp_url"); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Hostname() == "" {
			return Server{}, errors.NewConfigurationError(channel.TypeEmail, "invalid smtp_url")
		}
		s := Server{Host: u.Hostname(), SSL: u.Scheme == "smtps", TLS: u.Scheme != "smtp+insecure"}
		if u.User != nil {
			s.Username = u.User.Username()
			s.Password, _ = u.User.Password()
		}
		s.Port = defaultPort
		if s.SSL {
			s.Port = sslPort
		}
		if p, err := strconv.Atoi(u.Port()); err == nil {
			s.Port = p
		}
		return s, nil
	}
	if err := cfg.Require(channel.TypeEmail, "host", "user", "password"); err != nil {
		return Server{}, err
	}
	return Server{
		Host:     cfg.String("host"),
		Port:     cfg.Int("port", defaultPort),
		Username: cfg.String("user"),
		Password: cfg.String("password"),
		SSL:      cfg.Bool("ssl", false),
		TLS:      cfg.Bool("tls", true),
	}, nil
}

func recipients(v any) []string {
	var out []string
	add := func(s string) {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	switch t := v.(type) {
	case string:
		add(t)
	case []string:
		for _, s := range t {
			add(s)
		}
	case []any:
		for _, s := range t {
			if str, ok := s.(string); ok {
				add(str)
			}
		}
	}
	return out
}

func (a *Adapter) dial() (sender, error) {
	opts := []mail.Option{
		mail.WithTimeout(a.timeout),
		mail.WithPort(a.server.Port),
	}
	switch {
	case a.server.SSL:
		opts = append(opts, mail.WithSSLPort(false))
	case a.server.TLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		a.log.Warn("Using plain SMTP without encryption", "host", a.server.Host)
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if a.server.Username != "" && a.server.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(a.server.Username),
			mail.WithPassword(a.server.Password),
		)
	}
	client, err := mail.NewClient(a.server.Host, opts...)
	if err != nil {
		return nil, errors.NewConfigurationError(channel.TypeEmail, "failed to create mail client").
			WithDetails(err.Error()).
			WithCause(err)
	}
	return client, nil
}

// Send implements channel.Adapter.
func (a *Adapter) Send(ctx context.Context, kind alert.Kind, event alert.Event) (*channel.Delivery, error) {
	msg, err := a.Build(kind, event)
	if err != nil {
		return nil, err
	}
	s, err := a.newSender()
	if err != nil {
		return nil, err
	}
	if err := s.DialAndSendWithContext(ctx, msg); err != nil {
		return nil, errors.NewDeliveryError(channel.TypeEmail, err)
	}
	a.log.Debug("Email sent", "to", strings.Join(a.to, ","), "kind", kind)
	return &channel.Delivery{MessageID: msg.GetMessageID()}, nil
}

// Subject returns the mail subject for event.
func (a *Adapter) Subject(kind alert.Kind, event alert.Event) string {
	topic := event.String("error_code")
	if topic == "" {
		topic = event.Message()
	}
	if topic == "" {
		topic = "System Notification"
	}
	env := format.Environment(event, a.common)
	return "[" + env + "] " + kind.Emoji() + " " + kind.Title() + " Alert: " + topic
}

// Build assembles the mail message.
func (a *Adapter) Build(kind alert.Kind, event alert.Event) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(a.from); err != nil {
		return nil, errors.NewConfigurationError(channel.TypeEmail, "invalid from address").WithDetails(err.Error())
	}
	if err := m.To(a.to...); err != nil {
		return nil, errors.NewConfigurationError(channel.TypeEmail, "invalid to address").WithDetails(err.Error())
	}
	m.Subject(a.Subject(kind, event))
	m.SetMessageID()
	m.SetDate()
	if kind == alert.KindError {
		m.SetImportance(mail.ImportanceHigh)
	}

	entries := format.Entries(event, a.common.Specific, a.common.Beauty, false)
	text := plainBody(entries)
	if !a.common.Beauty {
		m.SetBodyString(mail.TypeTextPlain, text)
		return m, nil
	}
	body, err := a.html(kind, event, entries)
	if err != nil {
		return nil, err
	}
	m.SetBodyString(mail.TypeTextHTML, body)
	m.AddAlternativeString(mail.TypeTextPlain, text)
	return m, nil
}

func plainBody(entries []format.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Title+": "+e.Pretty())
	}
	return strings.Join(lines, "\n")
}
