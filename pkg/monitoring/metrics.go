// Package monitoring keeps in-process delivery statistics per channel type.
package monitoring

import (
	"sort"
	"sync"
	"time"
)

// ChannelStats are the counters of one channel type.
type ChannelStats struct {
	Type        string        `json:"type"`
	Sent        int64         `json:"sent"`
	Failed      int64         `json:"failed"`
	LastError   string        `json:"last_error,omitempty"`
	LastErrorAt time.Time     `json:"last_error_at,omitempty"`
	AvgDuration time.Duration `json:"avg_duration"`
	MaxDuration time.Duration `json:"max_duration"`
	Healthy     bool          `json:"healthy"`
}

// Snapshot is a point-in-time copy of the metrics.
type Snapshot struct {
	Dispatches  int64          `json:"dispatches"`
	TotalSent   int64          `json:"total_sent"`
	TotalFailed int64          `json:"total_failed"`
	SuccessRate float64        `json:"success_rate"`
	Channels    []ChannelStats `json:"channels"`
	StartTime   time.Time      `json:"start_time"`
	Uptime      string         `json:"uptime"`
}

// Metrics accumulates delivery outcomes. It is safe for concurrent use.
type Metrics struct {
	mu         sync.RWMutex
	dispatches int64
	channels   map[string]*ChannelStats
	start      time.Time
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{channels: make(map[string]*ChannelStats), start: time.Now()}
}

// RecordDispatch counts one fan-out.
func (m *Metrics) RecordDispatch() {
	m.mu.Lock()
	m.dispatches++
	m.mu.Unlock()
}

// RecordSend records one channel's outcome. A channel is healthy while its
// latest send succeeded.
func (m *Metrics) RecordSend(channelType string, success bool, d time.Duration, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.channels[channelType]
	if !ok {
		s = &ChannelStats{Type: channelType}
		m.channels[channelType] = s
	}
	if success {
		s.Sent++
	} else {
		s.Failed++
		s.LastError = errMsg
		s.LastErrorAt = time.Now()
	}
	s.Healthy = success

	n := s.Sent + s.Failed
	s.AvgDuration = time.Duration((int64(s.AvgDuration)*(n-1) + int64(d)) / n)
	if d > s.MaxDuration {
		s.MaxDuration = d
	}
}

// Snapshot copies the current counters. Channels are sorted by type.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Dispatches: m.dispatches,
		Channels:   make([]ChannelStats, 0, len(m.channels)),
		StartTime:  m.start,
		Uptime:     time.Since(m.start).Round(time.Second).String(),
	}
	for _, s := range m.channels {
		snap.TotalSent += s.Sent
		snap.TotalFailed += s.Failed
		snap.Channels = append(snap.Channels, *s)
	}
	sort.Slice(snap.Channels, func(i, j int) bool { return snap.Channels[i].Type < snap.Channels[j].Type })

	snap.SuccessRate = 1.0
	if total := snap.TotalSent + snap.TotalFailed; total > 0 {
		snap.SuccessRate = float64(snap.TotalSent) / float64(total)
	}
	return snap
}

// Reset clears every counter.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatches = 0
	m.channels = make(map[string]*ChannelStats)
	m.start = time.Now()
}
