package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func healthServer(t *testing.T, status healthcheck.Status) *httptest.Server {
	t.Helper()
	hc := healthcheck.New("1.2.3", zap.NewNop())
	hc.Register("database", healthcheck.NewCustomChecker("database", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
		return status, "probe", nil
	}))

	srv := httptest.NewServer(hc.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name   string
		status healthcheck.Status
		expect string
		want   int
	}{
		{name: "Healthy", status: healthcheck.StatusHealthy, expect: "healthy", want: exitCodeSuccess},
		{name: "DegradedWhenExpectingHealthy", status: healthcheck.StatusDegraded, expect: "healthy", want: exitCodeFailure},
		{name: "DegradedAccepted", status: healthcheck.StatusDegraded, expect: "degraded", want: exitCodeSuccess},
		{name: "Unhealthy", status: healthcheck.StatusUnhealthy, expect: "degraded", want: exitCodeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := healthServer(t, tt.status)
			var out bytes.Buffer

			code := probe(probeConfig{URL: srv.URL, Timeout: time.Second, Expect: tt.expect, Verbose: true}, &out)

			assert.Equal(t, tt.want, code)
			assert.Contains(t, out.String(), "Status: "+string(tt.status))
			assert.Contains(t, out.String(), "database: "+string(tt.status)+" (probe)")
		})
	}
}

func TestProbe_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var out bytes.Buffer
	code := probe(probeConfig{URL: url, Timeout: 100 * time.Millisecond, RetryCount: 1, RetryDelay: time.Millisecond}, &out)

	assert.Equal(t, exitCodeError, code)
	assert.Contains(t, out.String(), "after 2 attempts")
}

func TestProbe_NotHealthJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	var out bytes.Buffer
	assert.Equal(t, exitCodeError, probe(probeConfig{URL: srv.URL, Timeout: time.Second}, &out))
}

func TestRootCmd_JSONFormat(t *testing.T) {
	srv := healthServer(t, healthcheck.StatusHealthy)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--url", srv.URL, "--format", "json"})

	assert.Equal(t, exitCodeSuccess, cmd.executeWithCode())
	assert.Contains(t, out.String(), `"version": "1.2.3"`)
}
