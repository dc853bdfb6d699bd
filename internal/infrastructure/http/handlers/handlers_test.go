package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type MockAssistantService struct{ mock.Mock }

func (m *MockAssistantService) Ask(ctx context.Context, req inbound.AskRequest) (*inbound.AskResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.AskResponse), args.Error(1)
}

func (m *MockAssistantService) Glossary(ctx context.Context) *inbound.GlossaryDTO {
	return m.Called(ctx).Get(0).(*inbound.GlossaryDTO)
}

type MockChatService struct{ mock.Mock }

func (m *MockChatService) Chat(ctx context.Context, req inbound.ChatRequest) (*inbound.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.ChatResponse), args.Error(1)
}

type MockPaymentService struct{ mock.Mock }

func (m *MockPaymentService) CreatePaymentIntent(ctx context.Context, req inbound.PaymentIntentRequest) (*inbound.PaymentIntentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.PaymentIntentResponse), args.Error(1)
}

func (m *MockPaymentService) CreateCheckoutSession(ctx context.Context, req inbound.CheckoutRequest) (*inbound.CheckoutResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.CheckoutResponse), args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*inbound.PaymentDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.PaymentDTO), args.Error(1)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// HandlersTestSuite exercises the handlers through a chi router so URL
// parameters resolve as in production
type HandlersTestSuite struct {
	suite.Suite
	assistant *MockAssistantService
	chat      *MockChatService
	payments  *MockPaymentService
	router    chi.Router
}

func (s *HandlersTestSuite) SetupTest() {
	logger := zaptest.NewLogger(s.T())
	s.assistant = new(MockAssistantService)
	s.chat = new(MockChatService)
	s.payments = new(MockPaymentService)

	ah := NewAssistantHandlers(s.assistant, 0, logger)
	ch := NewChatHandlers(s.chat, 0, logger)
	ph := NewPaymentHandlers(s.payments, 64, logger)

	r := chi.NewRouter()
	r.Post("/api/v1/assistant", ah.Ask)
	r.Get("/api/v1/assistant/glossary", ah.Glossary)
	r.Post("/api/v1/chat", ch.Chat)
	r.Post("/api/v1/payments/intents", ph.CreateIntent)
	r.Post("/api/v1/payments/checkout", ph.CreateCheckout)
	r.Get("/api/v1/payments/{id}", ph.GetPayment)
	r.Post("/api/v1/payments/webhook", ph.Webhook)
	s.router = r
}

func (s *HandlersTestSuite) TearDownTest() {
	s.assistant.AssertExpectations(s.T())
	s.chat.AssertExpectations(s.T())
	s.payments.AssertExpectations(s.T())
}

func (s *HandlersTestSuite) do(method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (s *HandlersTestSuite) TestAsk() {
	s.assistant.On("Ask", mock.Anything, inbound.AskRequest{Message: "what is a roux"}).
		Return(&inbound.AskResponse{Response: "A roux is...", Category: "technique", MatchedKey: "roux"}, nil).Once()

	rec, env := s.do(http.MethodPost, "/api/v1/assistant", `{"message":"what is a roux"}`)

	s.Equal(http.StatusOK, rec.Code)
	s.True(env.Success)
	s.JSONEq(`{"response":"A roux is...","category":"technique","matched_key":"roux"}`, string(env.Data))
}

func (s *HandlersTestSuite) TestAsk_ValidationError() {
	s.assistant.On("Ask", mock.Anything, mock.Anything).
		Return(nil, errors.NewValidationError("message too long")).Once()

	rec, env := s.do(http.MethodPost, "/api/v1/assistant", `{"message":"x"}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.False(env.Success)
	s.Equal("VALIDATION_FAILED", env.Error)
	s.Contains(env.Message, "message too long")
}

func (s *HandlersTestSuite) TestAsk_BadJSON() {
	tests := []struct {
		name string
		body string
	}{
		{name: "Malformed", body: `{"message":`},
		{name: "UnknownField", body: `{"msg":"hi"}`},
		{name: "TrailingData", body: `{"message":"a"}{"message":"b"}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec, env := s.do(http.MethodPost, "/api/v1/assistant", tt.body)
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Equal("BAD_REQUEST", env.Error)
		})
	}
}

func (s *HandlersTestSuite) TestGlossary() {
	s.assistant.On("Glossary", mock.Anything).Return(&inbound.GlossaryDTO{
		Techniques:    []inbound.GlossaryEntryDTO{{Term: "braise", Explanation: "slow cook"}},
		Substitutions: []inbound.GlossaryEntryDTO{},
	}).Once()

	rec, env := s.do(http.MethodGet, "/api/v1/assistant/glossary", "")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"techniques":[{"term":"braise","explanation":"slow cook"}],"substitutions":[]}`, string(env.Data))
}

func (s *HandlersTestSuite) TestChat() {
	req := inbound.ChatRequest{Messages: []outbound.ChatMessage{{Role: outbound.ChatRoleUser, Content: "hi"}}}
	s.chat.On("Chat", mock.Anything, req).
		Return(&inbound.ChatResponse{Reply: "hello", Source: inbound.SourceProvider, Model: "gpt-4o-mini"}, nil).Once()

	rec, env := s.do(http.MethodPost, "/api/v1/chat", `{"messages":[{"role":"user","content":"hi"}]}`)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"reply":"hello","source":"provider","model":"gpt-4o-mini"}`, string(env.Data))
}

func (s *HandlersTestSuite) TestChat_ProviderFailureHidesCause() {
	s.chat.On("Chat", mock.Anything, mock.Anything).
		Return(nil, errors.NewExternalServiceError("language model", assert.AnError)).Once()

	rec, env := s.do(http.MethodPost, "/api/v1/chat", `{"messages":[{"role":"user","content":"hi"}]}`)

	s.Equal(http.StatusBadGateway, rec.Code)
	s.Equal("EXTERNAL_SERVICE_ERROR", env.Error)
	s.NotContains(rec.Body.String(), assert.AnError.Error())
}

func (s *HandlersTestSuite) TestChat_UnexpectedErrorIs500() {
	s.chat.On("Chat", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	rec, env := s.do(http.MethodPost, "/api/v1/chat", `{"messages":[{"role":"user","content":"hi"}]}`)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("INTERNAL_ERROR", env.Error)
	s.NotContains(rec.Body.String(), assert.AnError.Error())
}

func (s *HandlersTestSuite) TestCreateIntent() {
	id := uuid.New()
	s.payments.On("CreatePaymentIntent", mock.Anything, inbound.PaymentIntentRequest{AmountCents: 500, Currency: "usd"}).
		Return(&inbound.PaymentIntentResponse{PaymentID: id, ClientSecret: "pi_secret", Status: "pending"}, nil).Once()

	rec, env := s.do(http.MethodPost, "/api/v1/payments/intents", `{"amount_cents":500,"currency":"usd"}`)

	s.Equal(http.StatusCreated, rec.Code)
	var got inbound.PaymentIntentResponse
	s.Require().NoError(json.Unmarshal(env.Data, &got))
	s.Equal(id, got.PaymentID)
	s.Equal("pi_secret", got.ClientSecret)
}

func (s *HandlersTestSuite) TestCreateIntent_BodyTooLarge() {
	rec, env := s.do(http.MethodPost, "/api/v1/payments/intents",
		`{"amount_cents":500,"description":"`+strings.Repeat("x", 100)+`"}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(env.Message, "too large")
}

func (s *HandlersTestSuite) TestCreateCheckout_EmptyBodyUsesDefaults() {
	s.payments.On("CreateCheckoutSession", mock.Anything, inbound.CheckoutRequest{}).
		Return(&inbound.CheckoutResponse{PaymentID: uuid.New(), SessionID: "cs_1", URL: "https://checkout"}, nil).Once()

	rec, _ := s.do(http.MethodPost, "/api/v1/payments/checkout", "")

	s.Equal(http.StatusCreated, rec.Code)
}

func (s *HandlersTestSuite) TestCreateCheckout_NotConfigured() {
	s.payments.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(nil, errors.NewServiceUnavailableError("payments")).Once()

	rec, env := s.do(http.MethodPost, "/api/v1/payments/checkout", `{}`)

	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Contains(env.Message, "payments is not configured")
}

func (s *HandlersTestSuite) TestGetPayment() {
	id := uuid.New()
	s.payments.On("GetPayment", mock.Anything, id).Return(&inbound.PaymentDTO{
		ID: id, Kind: "one_time", Status: "succeeded", CreatedAt: time.Now().UTC(),
	}, nil).Once()

	rec, env := s.do(http.MethodGet, "/api/v1/payments/"+id.String(), "")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(string(env.Data), `"status":"succeeded"`)
}

func (s *HandlersTestSuite) TestGetPayment_InvalidID() {
	rec, env := s.do(http.MethodGet, "/api/v1/payments/not-a-uuid", "")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid payment ID", env.Message)
}

func (s *HandlersTestSuite) TestGetPayment_NotFound() {
	id := uuid.New()
	s.payments.On("GetPayment", mock.Anything, id).Return(nil, errors.NewPaymentNotFoundError(id.String())).Once()

	rec, env := s.do(http.MethodGet, "/api/v1/payments/"+id.String(), "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("PAYMENT_NOT_FOUND", env.Error)
}

func (s *HandlersTestSuite) TestWebhook_PassesRawBody() {
	body := `{"id":"evt_1","type":"payment_intent.succeeded"}`
	s.payments.On("HandleWebhook", mock.Anything, []byte(body), "t=1,v1=abc").Return(nil).Once()

	rec, env := s.do(http.MethodPost, "/api/v1/payments/webhook", body, SignatureHeader, "t=1,v1=abc")

	s.Equal(http.StatusOK, rec.Code)
	s.True(env.Success)
}

func (s *HandlersTestSuite) TestWebhook_InvalidSignature() {
	s.payments.On("HandleWebhook", mock.Anything, mock.Anything, "").
		Return(errors.NewAppError(errors.CodeInvalidSignature, "Invalid webhook signature", "")).Once()

	rec, env := s.do(http.MethodPost, "/api/v1/payments/webhook", `{}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("INVALID_SIGNATURE", env.Error)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestNewBase_DefaultsBodyLimit(t *testing.T) {
	b := newBase(zaptest.NewLogger(t), 0)
	require.Equal(t, DefaultMaxBodyBytes, b.maxBodyBytes)
}
