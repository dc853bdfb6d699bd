package monitoring

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMetricsCollector_Records(t *testing.T) {
	m := NewMetricsCollector(zaptest.NewLogger(t))

	m.RecordAssistantAnswer("issue")
	m.RecordAssistantAnswer("issue")
	m.RecordChatReply("cache")
	m.RecordPayment("one_time", "pending")
	m.RecordWebhookEvent("payment_intent.succeeded", "updated")
	m.RecordRateLimited("/api/v1/chat")
	m.RecordHTTPRequest(http.MethodPost, "/api/v1/assistant", http.StatusOK, 10*time.Millisecond)
	m.RecordChatProviderCall(time.Second, 12, 30)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.assistantAnswersTotal.WithLabelValues("issue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatRepliesTotal.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentsTotal.WithLabelValues("one_time", "pending")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.chatTokensTotal.WithLabelValues("completion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/api/v1/assistant", "200")))
}

func TestMetricsCollector_Handler(t *testing.T) {
	m := NewMetricsCollector(zaptest.NewLogger(t))
	m.RecordChatReply("provider")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `chat_replies_total{source="provider"} 1`)
}

func TestTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(context.Background(), TracingConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
}
