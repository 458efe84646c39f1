package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/errors"
	"github.com/kart-io/alerthub/pkg/logger"
)

func TestRegistry(t *testing.T) {
	r := Registry()
	assert.Equal(t, []string{"discord", "email", "mattermost", "n8n", "rocketchat", "slack", "telegram", "webhook"}, r.Types())

	for _, tag := range r.Types() {
		t.Run(tag, func(t *testing.T) {
			f, ok := r.Lookup(tag)
			require.True(t, ok)
			_, err := f(channel.Config{}, logger.Discard)
			assert.True(t, errors.IsConfigurationError(err), "empty config must be rejected")
		})
	}

	_, ok := r.Lookup("zalo")
	assert.False(t, ok)
}

func TestRegistry_Independent(t *testing.T) {
	a := Registry()
	a.Register("custom", nil)
	assert.NotContains(t, Registry().Types(), "custom")
}
