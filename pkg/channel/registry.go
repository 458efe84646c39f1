package channel

import (
	"sort"
	"strings"
	"sync"
)

// Built-in type tags.
const (
	TypeSlack      = "slack"
	TypeDiscord    = "discord"
	TypeTelegram   = "telegram"
	TypeEmail      = "email"
	TypeMattermost = "mattermost"
	TypeRocketChat = "rocketchat"
	TypeWebhook    = "webhook"
	TypeN8N        = "n8n"
)

// NormalizeType lower-cases and trims a type tag. Tags are matched
// case-insensitively everywhere.
func NormalizeType(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Registry maps type tags to adapter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds tag to factory, replacing any previous binding.
func (r *Registry) Register(tag string, factory Factory) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[NormalizeType(tag)] = factory
	return r
}

// Lookup returns the factory for tag.
func (r *Registry) Lookup(tag string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[NormalizeType(tag)]
	return f, ok
}

// Types returns the registered tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewRegistry()
	for tag, f := range r.factories {
		out.factories[tag] = f
	}
	return out
}
