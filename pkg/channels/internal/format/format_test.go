package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
)

func TestEntries(t *testing.T) {
	event := alert.Event{
		"message":    "boom",
		"error_code": "E42",
		"meta":       map[string]any{"k": "v"},
		"empty":      nil,
	}
	plain := false

	t.Run("all keys without specs", func(t *testing.T) {
		got := Entries(event, nil, true, false)
		require.Len(t, got, 3)
		assert.Equal(t, "message", got[0].Key)
		assert.Equal(t, "Error Code", got[1].Title)
		assert.True(t, got[2].Nested)
		assert.True(t, got[0].Code)
	})

	t.Run("specs only", func(t *testing.T) {
		got := Entries(event, []alert.FieldSpec{
			{Key: "error_code", Label: "Code", Emoji: "🔥", Markdown: &plain},
			{Key: "missing"},
		}, true, false)
		require.Len(t, got, 1)
		assert.Equal(t, "🔥 Code", got[0].Label())
		assert.False(t, got[0].Code)
	})

	t.Run("specs then rest", func(t *testing.T) {
		got := Entries(event, []alert.FieldSpec{{Key: "error_code"}}, false, true)
		require.Len(t, got, 3)
		assert.Equal(t, "error_code", got[0].Key)
		assert.Equal(t, "message", got[1].Key)
	})
}

func TestPlain(t *testing.T) {
	got := Plain(Entries(alert.Event{"message": "hi", "n": 3}, nil, false, false))
	assert.Equal(t, "Message: hi\nN: 3", got)
}

func TestEnvironment(t *testing.T) {
	assert.Equal(t, "PROD", Environment(alert.Event{"environment": "PROD"}, channel.Common{Environment: "DEV"}))
	assert.Equal(t, "DEV", Environment(alert.Event{}, channel.Common{Environment: "DEV"}))
	assert.Equal(t, "UNKNOWN", Environment(alert.Event{}, channel.Common{}))
	assert.Equal(t, "🚨 DEV Environment Alert", Header(alert.KindError, "DEV"))
}

func TestRoute(t *testing.T) {
	table := map[string]any{
		"hotel": map[string]any{
			"error":   map[string]any{"book": "#hotel-book", "all": "#hotel-errors"},
			"warning": map[string]any{"all": "#hotel-warn"},
		},
		"general": "#general",
	}
	tests := []struct {
		name    string
		service string
		kind    alert.Kind
		action  string
		want    any
	}{
		{"exact action", "hotel", alert.KindError, "book", "#hotel-book"},
		{"all action", "HOTEL", alert.KindError, "search", "#hotel-errors"},
		{"warning alias", "hotel", alert.KindWarn, "", "#hotel-warn"},
		{"error fallback", "hotel", alert.KindInfo, "book", "#hotel-book"},
		{"general fallback", "flight", alert.KindInfo, "", "#general"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Route(table, tt.service, tt.kind, tt.action)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := Route(nil, "hotel", alert.KindError, "")
	assert.False(t, ok)
}
