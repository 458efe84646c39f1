package http_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/hub"
	"github.com/kart-io/alerthub/pkg/logger"
	"github.com/kart-io/alerthub/pkg/monitoring"
	"github.com/kart-io/alerthub/pkg/receipt"
	transporthttp "github.com/kart-io/alerthub/transport/http"
	"github.com/kart-io/alerthub/transport/http/handlers"
)

type fixture struct {
	handler http.Handler
	ok      *channel.Mock
	bad     *channel.Mock
}

func newFixture(t *testing.T, config transporthttp.Config, opts ...hub.Option) *fixture {
	t.Helper()
	ok := channel.NewMock()
	bad := channel.NewMock().WithError(stderrors.New("timeout"))
	reg := channel.NewRegistry().
		Register("ok", channel.MockFactory(ok)).
		Register("bad", channel.MockFactory(bad))

	base := []hub.Option{
		hub.WithRegistry(reg),
		hub.WithLogger(logger.Discard),
		hub.WithService("booking"),
		hub.WithChannel("ok", nil),
		hub.WithChannel("bad", nil),
		hub.WithReceiptStore(receipt.NewMemoryStore(10)),
	}
	h, err := hub.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	return &fixture{
		handler: transporthttp.NewServer(h, config, logger.Discard).Handler(),
		ok:      ok,
		bad:     bad,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestSendAlert(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		opts       []hub.Option
		wantStatus int
		validate   func(*testing.T, *fixture, *httptest.ResponseRecorder)
	}{
		{
			name:       "partial failure reports both channels",
			path:       "/api/v1/alerts/error",
			body:       `{"message":"DB down","error_code":"E1"}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, f *fixture, rec *httptest.ResponseRecorder) {
				report := decode[receipt.Report](t, rec)
				assert.True(t, report.Success)
				assert.Equal(t, receipt.Summary{Total: 2, Successful: 1, Failed: 1}, report.Summary)
				require.Len(t, report.Errors, 1)
				assert.Equal(t, "timeout", report.Errors[0].Error)
				assert.Equal(t, alert.KindError, f.ok.Calls()[0].Kind)
				assert.Equal(t, "DB down", f.ok.Calls()[0].Event["message"])
			},
		},
		{
			name:       "aggregate failure is a bad gateway with the report",
			path:       "/api/v1/alerts/WARN",
			body:       `{"message":"x"}`,
			opts:       []hub.Option{hub.WithFailSilently(false)},
			wantStatus: http.StatusBadGateway,
			validate: func(t *testing.T, _ *fixture, rec *httptest.ResponseRecorder) {
				report := decode[receipt.Report](t, rec)
				assert.Equal(t, alert.KindWarn, report.Kind)
				assert.Equal(t, 1, report.Summary.Failed)
			},
		},
		{
			name:       "unknown kind",
			path:       "/api/v1/alerts/fatal",
			body:       `{"message":"x"}`,
			wantStatus: http.StatusBadRequest,
			validate: func(t *testing.T, f *fixture, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "INVALID_KIND", decode[handlers.ErrorResponse](t, rec).Error)
				assert.Zero(t, f.ok.CallCount())
			},
		},
		{
			name:       "malformed body",
			path:       "/api/v1/alerts/info",
			body:       `{"message":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "null body",
			path:       "/api/v1/alerts/info",
			body:       `null`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "array body",
			path:       "/api/v1/alerts/info",
			body:       `[1,2]`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, transporthttp.Config{}, tt.opts...)
			rec := f.do(t, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.validate != nil {
				tt.validate(t, f, rec)
			}
		})
	}
}

func TestBatch(t *testing.T) {
	f := newFixture(t, transporthttp.Config{})

	rec := f.do(t, http.MethodPost, "/api/v1/alerts", `{"alerts":[
		{"kind":"info","event":{"message":"one"}},
		{"kind":"success","event":{"message":"two"}}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[handlers.BatchResponse](t, rec)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.Delivered)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, alert.KindSuccess, resp.Items[1].Report.Kind)
	assert.Equal(t, 2, f.ok.CallCount())

	t.Run("rejected before any dispatch", func(t *testing.T) {
		f := newFixture(t, transporthttp.Config{})
		rec := f.do(t, http.MethodPost, "/api/v1/alerts", `{"alerts":[
			{"kind":"info","event":{"message":"one"}},
			{"kind":"loud","event":{"message":"two"}}
		]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, f.ok.CallCount())

		rec = f.do(t, http.MethodPost, "/api/v1/alerts", `{"alerts":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthCheckEndpoint(t *testing.T) {
	f := newFixture(t, transporthttp.Config{})

	rec := f.do(t, http.MethodPost, "/api/v1/health-check", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[receipt.Report](t, rec)
	assert.Equal(t, alert.KindInfo, report.Kind)

	require.Equal(t, 1, f.ok.CallCount())
	assert.Equal(t, true, f.ok.Calls()[0].Event["health_check"])
}

func TestChannelsAndHealthz(t *testing.T) {
	f := newFixture(t, transporthttp.Config{})

	rec := f.do(t, http.MethodGet, "/api/v1/channels", "")
	require.Equal(t, http.StatusOK, rec.Code)
	channels := decode[handlers.ChannelsResponse](t, rec)
	assert.Equal(t, 2, channels.Total)
	assert.Equal(t, channel.Info{Type: "ok", Service: "booking", Environment: "STAGING"}, channels.Channels[0])
	assert.NotContains(t, rec.Body.String(), "webhook_url")

	rec = f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[handlers.HealthResponse](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "booking", health.Service)
	assert.Equal(t, 2, health.Channels)
}

func TestReports(t *testing.T) {
	f := newFixture(t, transporthttp.Config{})

	sent := decode[receipt.Report](t, f.do(t, http.MethodPost, "/api/v1/alerts/info", `{"message":"a"}`))
	f.do(t, http.MethodPost, "/api/v1/alerts/info", `{"message":"b"}`)

	rec := f.do(t, http.MethodGet, "/api/v1/reports/"+sent.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sent.ID, decode[receipt.Report](t, rec).ID)

	rec = f.do(t, http.MethodGet, "/api/v1/reports?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[handlers.ReportsResponse](t, rec)
	require.Len(t, list.Reports, 1)
	assert.NotEqual(t, sent.ID, list.Reports[0].ID, "newest first")

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/reports/missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/reports?limit=-1", "").Code)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, transporthttp.Config{})
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/alerts/error", `{"message":"a"}`).Code)

	rec := f.do(t, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[monitoring.Snapshot](t, rec)
	assert.Equal(t, int64(1), snap.Dispatches)
	assert.Equal(t, int64(1), snap.TotalSent)
	assert.Equal(t, int64(1), snap.TotalFailed)
	require.Len(t, snap.Channels, 2)
	assert.Equal(t, "bad", snap.Channels[0].Type)
	assert.Equal(t, "timeout", snap.Channels[0].LastError)
}

func TestAPIKeyAuth(t *testing.T) {
	f := newFixture(t, transporthttp.Config{APIKeys: []string{"secret"}})

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/channels", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/channels", "", "X-API-Key", "wrong").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/channels", "", "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/channels", "", "Authorization", "Bearer secret").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code, "liveness is public")
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, transporthttp.Config{RateLimit: 0.001, RateBurst: 1})

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/channels", "").Code)
	rec := f.do(t, http.MethodGet, "/api/v1/channels", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code, "liveness is not limited")
}

func TestCORS(t *testing.T) {
	f := newFixture(t, transporthttp.Config{EnableCORS: true})

	rec := f.do(t, http.MethodOptions, "/api/v1/alerts/info", "", "Origin", "https://ops.example.test")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://ops.example.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestServerStop(t *testing.T) {
	h, err := hub.New(hub.WithRegistry(channel.NewRegistry()), hub.WithLogger(logger.Discard))
	require.NoError(t, err)
	s := transporthttp.NewServer(h, transporthttp.Config{Addr: "127.0.0.1:0"}, nil)

	done := make(chan error, 1)
	go func() { done <- s.Start() }()
	require.NoError(t, s.Stop(context.Background()))
	assert.NoError(t, <-done)
}
