package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/alerthub/pkg/errors"
)

func TestPostJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	c := New("slack", 0).WithHeader("Authorization", "Bearer t")
	assert.Equal(t, DefaultTimeout, c.Timeout())

	d, err := c.PostJSON(context.Background(), srv.URL, map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, d.StatusCode)
	assert.Equal(t, "abc", DecodeID(d.Response, "id"))
	assert.Equal(t, "hi", got["text"])
}

func TestPostJSON_Errors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("invalid_token"))
		}))
		defer srv.Close()

		_, err := New("slack", time.Second).PostJSON(context.Background(), srv.URL, struct{}{})
		require.Error(t, err)
		assert.Equal(t, errors.ErrChannelAuth, errors.CodeOf(err))
		assert.Contains(t, err.Error(), "invalid_token")
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer srv.Close()
		defer close(release)

		_, err := New("discord", 20*time.Millisecond).PostJSON(context.Background(), srv.URL, struct{}{})
		require.Error(t, err)
		assert.Equal(t, errors.ErrNetworkTimeout, errors.CodeOf(err))
	})

	t.Run("bad payload", func(t *testing.T) {
		_, err := New("n8n", 0).PostJSON(context.Background(), "http://localhost", make(chan int))
		assert.Equal(t, errors.ErrMessageEncoding, errors.CodeOf(err))
	})
}

func TestDecodeID(t *testing.T) {
	assert.Equal(t, "100", DecodeID(`{"message_id":100}`, "message_id"))
	assert.Equal(t, "", DecodeID(`not json`, "id"))
	assert.Equal(t, "", DecodeID(`{"id":true}`, "id"))
}

func TestSigner(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	s := NewSigner("shh")
	s.now = func() time.Time { return fixed }

	body := []byte(`{"a":1}`)
	sig := s.Sign(body, fixed.Unix())
	assert.Regexp(t, `^sha256=[0-9a-f]{64}$`, sig)
	assert.Equal(t, sig, s.Sign(body, fixed.Unix()))

	assert.True(t, s.Verify(body, fixed.Unix(), sig, time.Minute))
	assert.False(t, s.Verify([]byte(`{"a":2}`), fixed.Unix(), sig, time.Minute))
	assert.False(t, s.Verify(body, fixed.Unix(), strings.TrimPrefix(sig, "sha256="), 0))
	assert.False(t, NewSigner("other").Verify(body, fixed.Unix(), sig, 0))

	s.now = func() time.Time { return fixed.Add(10 * time.Minute) }
	assert.False(t, s.Verify(body, fixed.Unix(), sig, 5*time.Minute), "stale timestamp")
	assert.True(t, s.Verify(body, fixed.Unix(), sig, 0))
}

func TestPost_Signed(t *testing.T) {
	signer := NewSigner("shh")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		ts, err := strconv.ParseInt(r.Header.Get(HeaderTimestamp), 10, 64)
		require.NoError(t, err)
		assert.True(t, signer.Verify(body, ts, r.Header.Get(HeaderSignature), time.Minute))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := New("webhook", 0).WithSigner(signer).PostJSON(context.Background(), srv.URL, map[string]any{"k": "v"})
	require.NoError(t, err)
}
