package mattermost

import (
	"context"
	"encoding/json"
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

func TestNew_MissingKeys(t *testing.T) {
	_, err := Factory(channel.Config{"url": "http://mm"}, logger.Discard)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "token, chat_id")
}

func TestSend(t *testing.T) {
	var got Post
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, postsPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"post-1"}`))
	}))
	defer srv.Close()

	cfg := channel.Resolve(channel.Defaults(), channel.Config{"url": srv.URL + "/", "token": "secret", "chat_id": "ch1"})
	a, err := New(cfg, logger.Discard)
	require.NoError(t, err)

	d, err := a.Send(context.Background(), alert.KindError, alert.Event{
		"message": "boom",
		"curl":    "curl -X POST http://api",
	})
	require.NoError(t, err)
	assert.Equal(t, "post-1", d.MessageID)
	assert.Equal(t, "ch1", got.ChannelID)
	assert.Contains(t, got.Message, "**Message:** `boom`")
	assert.Contains(t, got.Message, "```bash\ncurl -X POST http://api\n```")
	assert.NotContains(t, got.Message, "**Curl:**")
}

func TestFormat_Plain(t *testing.T) {
	cfg := channel.Resolve(channel.Defaults(), channel.Config{"url": "u", "token": "t", "chat_id": "c", "beauty": false})
	a, err := New(cfg, logger.Discard)
	require.NoError(t, err)
	assert.Equal(t, "ℹ️ Environment: STAGING\nmessage: `hi`", a.Format(alert.KindInfo, alert.Event{"message": "hi"}))
}
