package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/errors"
)

const sample = `
service: booking
environment: PRODUCTION
fail_silently: false
strict_mode: true
specific:
  - error_code
  - key: user_id
    label: User
channels:
  - type: slack
    config:
      webhook_url: ${SLACK_URL}
      beauty: false
  - type: telegram
    config:
      bot_token: ${TG_TOKEN:-fallback-token}
      chat_id: "-100123"
receipts:
  backend: redis
  redis_url: redis://localhost:6379/0
  ttl: 24h
http:
  addr: 127.0.0.1:9090
  rate_limit: 5
  rate_burst: 10
`

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample), env(map[string]string{"SLACK_URL": "https://hooks.slack.test/x"}))
	require.NoError(t, err)

	assert.Equal(t, "booking", f.Service)
	assert.Equal(t, "PRODUCTION", f.Environment)
	assert.False(t, f.IsFailSilently())
	assert.True(t, f.IsBeauty())
	assert.True(t, f.StrictMode)
	require.Len(t, f.Specific, 2)
	assert.Equal(t, "User", f.Specific[1].Title())

	require.Len(t, f.Channels, 2)
	assert.Equal(t, channel.TypeSlack, f.Channels[0].Type)
	assert.Equal(t, "https://hooks.slack.test/x", f.Channels[0].Config.String("webhook_url"))
	assert.False(t, f.Channels[0].Config.Bool(channel.KeyBeauty, true))
	assert.Equal(t, "fallback-token", f.Channels[1].Config.String("bot_token"))
	assert.Equal(t, "-100123", f.Channels[1].Config.String("chat_id"))

	assert.Equal(t, BackendRedis, f.Receipts.Backend)
	assert.Equal(t, 24*time.Hour, f.Receipts.TTL)
	assert.Equal(t, 1000, f.Receipts.MaxEntries, "unset values keep their defaults")
	assert.Equal(t, "127.0.0.1:9090", f.HTTP.Addr)
	assert.Equal(t, 5.0, f.HTTP.RateLimit)
	assert.Equal(t, 10, f.HTTP.RateBurst)
}

func TestParse_Defaults(t *testing.T) {
	f, err := Parse(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, channel.DefaultService, f.Service)
	assert.Equal(t, channel.DefaultEnvironment, f.Environment)
	assert.True(t, f.IsFailSilently())
	assert.True(t, f.IsBeauty())
	assert.False(t, f.HealthCheck)
	assert.Equal(t, BackendMemory, f.Receipts.Backend)
	assert.Equal(t, ":8080", f.HTTP.Addr)
	assert.False(t, f.Telemetry.Enabled)
}

func TestParse_EnvOverrides(t *testing.T) {
	f, err := Parse([]byte("service: booking\n"), env(map[string]string{
		EnvService:      "payments",
		EnvEnvironment:  "DEV",
		EnvLogLevel:     "DEBUG",
		EnvStrictMode:   "true",
		EnvFailSilently: "0",
	}))
	require.NoError(t, err)
	assert.Equal(t, "payments", f.Service)
	assert.Equal(t, "DEV", f.Environment)
	assert.Equal(t, "debug", f.LogLevel)
	assert.True(t, f.StrictMode)
	assert.False(t, f.IsFailSilently())

	_, err = Parse(nil, env(map[string]string{EnvStrictMode: "maybe"}))
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "servce: typo\n", "servce"},
		{"bad log level", "log_level: loud\n", "log_level must be one of"},
		{"redis without url", "receipts:\n  backend: redis\n", "receipts.redis_url is required"},
		{"bad backend", "receipts:\n  backend: postgres\n", "receipts.backend"},
		{"bad sample rate", "telemetry:\n  sample_rate: 2\n", "telemetry.sample_rate must be at most 1"},
		{"bad addr", "http:\n  addr: nope\n", "http.addr"},
		{"negative rate limit", "http:\n  rate_limit: -1\n", "http.rate_limit"},
		{"malformed yaml", "channels: [\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), nil)
			require.Error(t, err)
			assert.True(t, errors.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExpandEnv(t *testing.T) {
	lookup := env(map[string]string{"A": "1", "EMPTY": ""})
	got := ExpandEnv([]byte("a=${A} b=${B:-two} c=${B} d=$A e=${EMPTY:-x}"), lookup)
	assert.Equal(t, "a=1 b=two c= d=$A e=", string(got))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerthub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: from-file\n"), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	if os.Getenv(EnvService) == "" {
		assert.Equal(t, "from-file", f.Service)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrConfigLoadFailed, errors.CodeOf(err))
}

func TestWarnings(t *testing.T) {
	f := Default()
	assert.Equal(t, []string{"no channels configured"}, f.Warnings(nil))

	f.StrictMode = true
	f.Channels = []channel.Descriptor{{Type: "slack"}, {Type: ""}, {Type: "zalo"}}
	known := func(tag string) bool { return tag == "slack" }
	assert.Equal(t, []string{
		`channels[1] has no type`,
		`channels[2] has unknown type "zalo"`,
		"strict_mode is enabled but specific is empty; all fields pass through",
	}, f.Warnings(known))
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alerthub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: one\n"), 0o600))

	w := NewWatcher(path, WithDebounce(20*time.Millisecond), WithLookup(env(nil)))

	var mu sync.Mutex
	var seen []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(f *File) {
			mu.Lock()
			seen = append(seen, f.Service)
			mu.Unlock()
		})
	}()

	services := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), seen...)
	}

	// The watcher registers asynchronously; keep rewriting until it notices.
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("service: two\n"), 0o600)
		return len(services()) > 0
	}, 3*time.Second, 50*time.Millisecond)
	assert.Equal(t, "two", services()[0])

	// Invalid content is skipped.
	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0o600))
	time.Sleep(150 * time.Millisecond)
	assert.Len(t, services(), 1)

	require.NoError(t, os.WriteFile(path, []byte("service: three\n"), 0o600))
	assert.Eventually(t, func() bool {
		s := services()
		return len(s) == 2 && s[1] == "three"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
