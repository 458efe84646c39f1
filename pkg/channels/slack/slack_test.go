package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

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
	return a
}

func TestNew_RequiresWebhook(t *testing.T) {
	_, err := Factory(channel.Config{}, logger.Discard)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		cfg      channel.Config
		kind     alert.Kind
		event    alert.Event
		validate func(*testing.T, *Message)
	}{
		{
			name:  "plain text",
			cfg:   channel.Config{"webhook_url": "x", "beauty": false},
			kind:  alert.KindInfo,
			event: alert.Event{"message": "hello", "user_id": 7},
			validate: func(t *testing.T, m *Message) {
				assert.Equal(t, "Message: hello\nUser Id: 7", m.Text)
				assert.Empty(t, m.Blocks)
			},
		},
		{
			name:  "block kit",
			cfg:   channel.Config{"webhook_url": "x", "environment": "PROD"},
			kind:  alert.KindError,
			event: alert.Event{"message": "boom", "meta": map[string]any{"k": "v"}},
			validate: func(t *testing.T, m *Message) {
				require.Len(t, m.Blocks, 3)
				assert.Equal(t, "header", m.Blocks[0].Type)
				assert.Equal(t, "🚨 PROD Environment Alert", m.Blocks[0].Text.Text)
				assert.Contains(t, m.Blocks[1].Text.Text, "```")
				require.Len(t, m.Blocks[2].Fields, 1)
				assert.Equal(t, "*📝 Message:*\n`boom`", m.Blocks[2].Fields[0].Text)
			},
		},
		{
			name: "fields split in groups of ten",
			cfg:  channel.Config{"webhook_url": "x"},
			kind: alert.KindWarn,
			event: func() alert.Event {
				e := alert.Event{}
				for i := 0; i < 12; i++ {
					e[fmt.Sprintf("f%02d", i)] = i
				}
				return e
			}(),
			validate: func(t *testing.T, m *Message) {
				require.Len(t, m.Blocks, 3)
				assert.Len(t, m.Blocks[1].Fields, 10)
				assert.Len(t, m.Blocks[2].Fields, 2)
			},
		},
		{
			name: "routing table",
			cfg: channel.Config{
				"webhook_url": "x",
				"service":     "flight",
				"action":      "book",
				"channels": map[string]any{
					"flight": map[string]any{"error": map[string]any{"book": "#flight-book"}},
				},
			},
			kind:  alert.KindError,
			event: alert.Event{"message": "m"},
			validate: func(t *testing.T, m *Message) {
				assert.Equal(t, "#flight-book", m.Channel)
			},
		},
		{
			name:  "explicit channel wins",
			cfg:   channel.Config{"webhook_url": "x", "channel": "#ops", "channels": map[string]any{"general": "#g"}},
			kind:  alert.KindError,
			event: alert.Event{"message": "m"},
			validate: func(t *testing.T, m *Message) {
				assert.Equal(t, "#ops", m.Channel)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, newAdapter(t, tt.cfg).Build(tt.kind, tt.event))
		})
	}
}

func TestSend(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	a := newAdapter(t, channel.Config{"webhook_url": srv.URL, "beauty": false})
	d, err := a.Send(context.Background(), alert.KindSuccess, alert.Event{"message": "done"})
	require.NoError(t, err)
	assert.Equal(t, "ok", d.Response)
	assert.Equal(t, "Message: done", got.Text)
}

func TestSend_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no_service", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newAdapter(t, channel.Config{"webhook_url": srv.URL}).Send(context.Background(), alert.KindError, alert.Event{})
	require.Error(t, err)
	assert.True(t, errors.IsDeliveryError(err))
}
