// Package chat provides the AI chat proxy. Conversations are forwarded
// to a language model; the rule-based assistant answers when the model
// is not configured or unavailable.
package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultSystemPrompt frames the model as a cooking assistant
const DefaultSystemPrompt = "You are a friendly, practical cooking assistant for a recipe website. " +
	"Answer questions about recipes, techniques, ingredient substitutions and fixing kitchen mistakes. " +
	"Keep answers short and concrete. Politely decline questions unrelated to food and cooking."

// Metrics is the subset of the metrics collector the service reports to
type Metrics interface {
	RecordChatReply(source string)
	RecordChatProviderCall(duration time.Duration, promptTokens, completionTokens int)
}

// Responder answers a single message without a language model
type Responder interface {
	Reply(message string) string
}

// Config holds chat proxy settings
type Config struct {
	SystemPrompt        string
	MaxHistory          int
	MaxMessageLength    int
	EnableCache         bool
	CacheTTL            time.Duration
	FallbackToAssistant bool
}

// Service implements inbound.ChatService
type Service struct {
	client    outbound.ChatCompletionClient
	responder Responder
	cache     outbound.CacheRepository
	metrics   Metrics
	config    Config
	validate  *validator.Validate
	logger    *zap.Logger
	tracer    trace.Tracer
}

var _ inbound.ChatService = (*Service)(nil)

// chatRequest mirrors inbound.ChatRequest with validation rules bound to
// the configured limits
type chatRequest struct {
	Messages []chatMessage `validate:"required,min=1,dive"`
}

type chatMessage struct {
	Role    string `validate:"required,oneof=user assistant"`
	Content string `validate:"required"`
}

// NewService creates a chat service. client may be nil, in which case
// every conversation is answered by responder.
func NewService(
	client outbound.ChatCompletionClient,
	responder Responder,
	cache outbound.CacheRepository,
	metrics Metrics,
	config Config,
	logger *zap.Logger,
) *Service {
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}
	return &Service{
		client:    client,
		responder: responder,
		cache:     cache,
		metrics:   metrics,
		config:    config,
		validate:  validator.New(),
		logger:    logger.Named("chat"),
		tracer:    otel.Tracer("alchemorsel/chat"),
	}
}

// Chat forwards the conversation and returns the model's reply unchanged
func (s *Service) Chat(ctx context.Context, req inbound.ChatRequest) (*inbound.ChatResponse, error) {
	ctx, span := s.tracer.Start(ctx, "chat.Chat")
	defer span.End()

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	lastUser := req.Messages[len(req.Messages)-1].Content

	if s.client == nil {
		return s.assistantReply(span, lastUser), nil
	}

	messages := make([]outbound.ChatMessage, 0, len(req.Messages)+1)
	messages = append(messages, outbound.ChatMessage{Role: outbound.ChatRoleSystem, Content: s.config.SystemPrompt})
	messages = append(messages, req.Messages...)

	cacheKey := s.cacheKey(messages)
	if resp, ok := s.fromCache(ctx, cacheKey); ok {
		span.SetAttributes(attribute.String("chat.source", inbound.SourceCache))
		s.metrics.RecordChatReply(inbound.SourceCache)
		return resp, nil
	}

	start := time.Now()
	completion, err := s.client.Complete(ctx, messages)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("Language model call failed",
			zap.String("model", s.client.Model()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		if s.config.FallbackToAssistant && ctx.Err() == nil {
			return s.assistantReply(span, lastUser), nil
		}
		span.SetStatus(codes.Error, "provider call failed")
		return nil, errors.NewExternalServiceError("language model provider", err)
	}
	s.metrics.RecordChatProviderCall(time.Since(start), completion.Usage.PromptTokens, completion.Usage.CompletionTokens)

	usage := completion.Usage
	resp := &inbound.ChatResponse{
		Reply:  completion.Content,
		Source: inbound.SourceProvider,
		Model:  completion.Model,
		Usage:  &usage,
	}
	s.toCache(ctx, cacheKey, resp)

	span.SetAttributes(
		attribute.String("chat.source", inbound.SourceProvider),
		attribute.Int("chat.total_tokens", usage.TotalTokens),
	)
	s.metrics.RecordChatReply(inbound.SourceProvider)
	return resp, nil
}

func (s *Service) validateRequest(req inbound.ChatRequest) *errors.AppError {
	if len(req.Messages) > s.config.MaxHistory {
		return errors.NewValidationError("conversation has too many messages").
			WithMetadata("max_history", s.config.MaxHistory)
	}

	vr := chatRequest{Messages: make([]chatMessage, 0, len(req.Messages))}
	for _, m := range req.Messages {
		vr.Messages = append(vr.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	if appErr := errors.FromValidator(s.validate.Struct(vr)); appErr != nil {
		return appErr
	}

	for _, m := range req.Messages {
		if len([]rune(m.Content)) > s.config.MaxMessageLength {
			return errors.NewValidationError("message content is too long").
				WithMetadata("max_message_length", s.config.MaxMessageLength)
		}
	}

	if req.Messages[len(req.Messages)-1].Role != outbound.ChatRoleUser {
		return errors.NewValidationError("the last message must come from the user")
	}
	return nil
}

func (s *Service) assistantReply(span trace.Span, message string) *inbound.ChatResponse {
	span.SetAttributes(attribute.String("chat.source", inbound.SourceAssistant))
	s.metrics.RecordChatReply(inbound.SourceAssistant)
	return &inbound.ChatResponse{
		Reply:  s.responder.Reply(message),
		Source: inbound.SourceAssistant,
	}
}

// cacheKey hashes the model name and the full conversation including the
// system prompt
func (s *Service) cacheKey(messages []outbound.ChatMessage) string {
	h := sha256.New()
	h.Write([]byte(s.client.Model()))
	for _, m := range messages {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
	}
	return "chat:" + hex.EncodeToString(h.Sum(nil))
}

func (s *Service) fromCache(ctx context.Context, key string) (*inbound.ChatResponse, bool) {
	if !s.config.EnableCache || s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !stderrors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Chat cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var resp inbound.ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.Warn("Discarding corrupt chat cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	resp.Source = inbound.SourceCache
	return &resp, true
}

func (s *Service) toCache(ctx context.Context, key string, resp *inbound.ChatResponse) {
	if !s.config.EnableCache || s.cache == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("Failed to encode chat reply for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.config.CacheTTL); err != nil {
		s.logger.Warn("Chat cache write failed", zap.String("key", key), zap.Error(err))
	}
}
