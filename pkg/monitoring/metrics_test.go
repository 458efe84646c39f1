package monitoring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSend(t *testing.T) {
	m := NewMetrics()
	m.RecordDispatch()
	m.RecordSend("slack", true, 100*time.Millisecond, "")
	m.RecordSend("email", false, 50*time.Millisecond, "connection timeout")
	m.RecordSend("slack", true, 200*time.Millisecond, "")

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Dispatches)
	assert.Equal(t, int64(2), snap.TotalSent)
	assert.Equal(t, int64(1), snap.TotalFailed)
	assert.InDelta(t, 2.0/3.0, snap.SuccessRate, 0.0001)
	require.Len(t, snap.Channels, 2)

	email := snap.Channels[0]
	assert.Equal(t, "email", email.Type)
	assert.Equal(t, "connection timeout", email.LastError)
	assert.False(t, email.LastErrorAt.IsZero())
	assert.False(t, email.Healthy)

	slack := snap.Channels[1]
	assert.Equal(t, int64(2), slack.Sent)
	assert.Equal(t, 150*time.Millisecond, slack.AvgDuration)
	assert.Equal(t, 200*time.Millisecond, slack.MaxDuration)
	assert.True(t, slack.Healthy)
}

func TestHealthFollowsLatestSend(t *testing.T) {
	m := NewMetrics()
	m.RecordSend("webhook", false, time.Millisecond, "boom")
	m.RecordSend("webhook", true, time.Millisecond, "")

	ch := m.Snapshot().Channels[0]
	assert.True(t, ch.Healthy)
	assert.Equal(t, "boom", ch.LastError)
}

func TestSnapshotEmpty(t *testing.T) {
	snap := NewMetrics().Snapshot()
	assert.Equal(t, 1.0, snap.SuccessRate)
	assert.Empty(t, snap.Channels)
	assert.NotEmpty(t, snap.Uptime)
}

func TestReset(t *testing.T) {
	m := NewMetrics()
	m.RecordDispatch()
	m.RecordSend("slack", true, time.Millisecond, "")
	m.Reset()

	snap := m.Snapshot()
	assert.Zero(t, snap.Dispatches)
	assert.Empty(t, snap.Channels)
}

func TestConcurrentRecord(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.RecordDispatch()
			m.RecordSend("slack", i%2 == 0, time.Millisecond, "err")
			_ = m.Snapshot()
		}(i)
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(50), snap.Dispatches)
	assert.Equal(t, int64(50), snap.TotalSent+snap.TotalFailed)
}
