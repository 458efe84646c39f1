package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/errors"
	"github.com/kart-io/alerthub/pkg/logger"
)

func newAdapter(t *testing.T, cfg channel.Config) *Adapter {
	t.Helper()
	a, err := New(channel.Resolve(channel.Defaults(), cfg), logger.Discard)
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return a
}

func TestNew_RequiresWebhook(t *testing.T) {
	_, err := Factory(channel.Config{"webhook_url": ""}, logger.Discard)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestBuild_Embed(t *testing.T) {
	a := newAdapter(t, channel.Config{
		"webhook_url": "x",
		"specific":    []any{map[string]any{"key": "error_code", "label": "Code"}},
	})
	msg := a.Build(alert.KindError, alert.Event{"message": "boom", "error_code": "E1", "user_id": "U1"})

	require.Len(t, msg.Embeds, 1)
	e := msg.Embeds[0]
	assert.Equal(t, "🚨 STAGING Environment Alert", e.Title)
	assert.Equal(t, 0xe74c3c, e.Color)
	assert.Equal(t, "2024-01-02T03:04:05Z", e.Timestamp)
	assert.Contains(t, e.Description, "boom")
	require.Len(t, e.Fields, 3)
	assert.Equal(t, Field{Name: "Code", Value: "`E1`", Inline: true}, e.Fields[0])
	assert.Equal(t, "message", e.Fields[1].Name)
	assert.Equal(t, "user_id", e.Fields[2].Name)
}

func TestBuild_Plain(t *testing.T) {
	a := newAdapter(t, channel.Config{"webhook_url": "x", "beauty": false, "environment": "DEV"})
	msg := a.Build(alert.KindWarn, alert.Event{"message": "slow"})
	assert.Empty(t, msg.Embeds)
	assert.Equal(t, "⚠️ Environment: DEV\nmessage: slow", msg.Content)
}

func TestBuild_TruncatesLongValues(t *testing.T) {
	a := newAdapter(t, channel.Config{"webhook_url": "x"})
	msg := a.Build(alert.KindInfo, alert.Event{"stack": strings.Repeat("x", 3000)})
	assert.LessOrEqual(t, len([]rune(msg.Embeds[0].Fields[0].Value)), maxFieldValue)
}

func TestSend(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d, err := newAdapter(t, channel.Config{"webhook_url": srv.URL}).Send(context.Background(), alert.KindSuccess, alert.Event{"message": "ok"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, d.StatusCode)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, 0x27ae60, got.Embeds[0].Color)
}
