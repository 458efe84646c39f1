package hub

import (
	"github.com/kart-io/alerthub/pkg/channel"
)

// AddChannel appends a channel built from d and returns the new channel
// count. Unknown types, and construction failures when failing silently,
// leave the list unchanged.
func (h *Hub) AddChannel(d channel.Descriptor) (int, error) {
	e, err := h.build(d)
	if err != nil {
		return h.ChannelCount(), err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if e != nil {
		h.channels = append(h.channels, e)
		h.logger.Info("Channel added", "type", e.tag, "channels", len(h.channels))
	}
	return len(h.channels), nil
}

// RemoveChannel removes every channel whose type matches tag,
// case-insensitively, and returns how many were removed.
func (h *Hub) RemoveChannel(tag string) int {
	tag = channel.NormalizeType(tag)

	h.mu.Lock()
	defer h.mu.Unlock()
	kept := make([]*entry, 0, len(h.channels))
	for _, e := range h.channels {
		if e.tag != tag {
			kept = append(kept, e)
		}
	}
	removed := len(h.channels) - len(kept)
	h.channels = kept
	if removed > 0 {
		h.logger.Info("Channel removed", "type", tag, "removed", removed, "channels", len(kept))
	}
	return removed
}

// Reload rebuilds the channel list from descriptors and swaps it in. On
// error the current list is kept.
func (h *Hub) Reload(descriptors []channel.Descriptor) (int, error) {
	entries, err := h.buildAll(descriptors)
	if err != nil {
		return h.ChannelCount(), err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.channels = entries
	h.logger.Info("Channels reloaded", "channels", len(entries))
	return len(entries), nil
}

// HasChannel reports whether a channel of type tag is configured.
func (h *Hub) HasChannel(tag string) bool {
	tag = channel.NormalizeType(tag)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, e := range h.channels {
		if e.tag == tag {
			return true
		}
	}
	return false
}

// Channels describes the configured channels, in dispatch order. Only the
// type, service and environment are exposed.
func (h *Hub) Channels() []channel.Info {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]channel.Info, 0, len(h.channels))
	for _, e := range h.channels {
		out = append(out, channel.Info{
			Type:        e.tag,
			Service:     e.config.StringOr(channel.KeyService, h.common.Service),
			Environment: e.config.StringOr(channel.KeyEnvironment, h.common.Environment),
		})
	}
	return out
}

// ChannelCount returns the number of configured channels.
func (h *Hub) ChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}
