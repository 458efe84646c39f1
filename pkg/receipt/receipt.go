// Package receipt holds the outcome of a dispatch: one Result per channel
// aggregated into a Report, plus stores that keep a bounded report history.
package receipt

import (
	"time"

	"github.com/google/uuid"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
)

// Report status values.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
	StatusEmpty   = "empty"
)

// Result is the outcome of delivering one alert to one channel.
type Result struct {
	Type     string            `json:"type"`
	Success  bool              `json:"success"`
	Delivery *channel.Delivery `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// Summary counts the results of a dispatch.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Report aggregates every channel's outcome for one dispatch. Results follow
// the order of the channel list; Errors is the failed subset in that order.
type Report struct {
	ID          string     `json:"id"`
	Kind        alert.Kind `json:"kind"`
	Status      string     `json:"status"`
	Success     bool       `json:"success"`
	Results     []Result   `json:"results"`
	Errors      []Result   `json:"errors"`
	Summary     Summary    `json:"summary"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at"`
}

// New starts a report for a dispatch of kind.
func New(kind alert.Kind) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusEmpty,
		Results:   []Result{},
		Errors:    []Result{},
		StartedAt: time.Now(),
	}
}

// Complete records results and derives the summary and status. The report
// succeeds when at least one channel succeeded.
func (r *Report) Complete(results []Result) *Report {
	r.Results = results
	r.Errors = make([]Result, 0)
	r.Summary = Summary{Total: len(results)}
	for _, res := range results {
		if res.Success {
			r.Summary.Successful++
		} else {
			r.Summary.Failed++
			r.Errors = append(r.Errors, res)
		}
	}
	r.Success = r.Summary.Successful > 0
	r.Status = status(r.Summary)
	r.CompletedAt = time.Now()
	return r
}

func status(s Summary) string {
	switch {
	case s.Total == 0:
		return StatusEmpty
	case s.Failed == 0:
		return StatusSuccess
	case s.Successful == 0:
		return StatusFailed
	}
	return StatusPartial
}

// Duration returns the wall time of the dispatch.
func (r *Report) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// IsPartial reports whether some but not all channels failed.
func (r *Report) IsPartial() bool { return r.Status == StatusPartial }

// SuccessRate returns the percentage of channels that succeeded.
func (r *Report) SuccessRate() float64 {
	if r.Summary.Total == 0 {
		return 0
	}
	return float64(r.Summary.Successful) / float64(r.Summary.Total) * 100
}

// ErrorMessages returns the failure messages in channel order.
func (r *Report) ErrorMessages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Error)
	}
	return out
}

// FailedChannels returns the types of the channels that failed.
func (r *Report) FailedChannels() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Type)
	}
	return out
}
