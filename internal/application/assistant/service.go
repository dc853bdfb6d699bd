// Package assistant provides the application service in front of the
// rule-based cooking assistant
package assistant

import (
	"context"
	"fmt"
	"unicode/utf8"

	domain "github.com/alchemorsel/kitchen/internal/domain/assistant"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Metrics is the subset of the metrics collector the service reports to
type Metrics interface {
	RecordAssistantAnswer(category string)
}

// Service implements inbound.AssistantService
type Service struct {
	resolver         *domain.Resolver
	metrics          Metrics
	logger           *zap.Logger
	tracer           trace.Tracer
	maxMessageLength int
}

var _ inbound.AssistantService = (*Service)(nil)

// NewService creates a new assistant service. maxMessageLength counts
// characters, not bytes.
func NewService(resolver *domain.Resolver, metrics Metrics, maxMessageLength int, logger *zap.Logger) *Service {
	return &Service{
		resolver:         resolver,
		metrics:          metrics,
		logger:           logger.Named("assistant"),
		tracer:           otel.Tracer("alchemorsel/assistant"),
		maxMessageLength: maxMessageLength,
	}
}

// Ask resolves a user message. Empty messages are valid and get the
// fallback answer.
func (s *Service) Ask(ctx context.Context, req inbound.AskRequest) (*inbound.AskResponse, error) {
	_, span := s.tracer.Start(ctx, "assistant.Ask")
	defer span.End()

	if n := utf8.RuneCountInString(req.Message); n > s.maxMessageLength {
		return nil, errors.NewValidationError(
			fmt.Sprintf("message must be at most %d characters, got %d", s.maxMessageLength, n),
		)
	}

	answer := s.resolver.Answer(req.Message)

	span.SetAttributes(
		attribute.String("assistant.category", string(answer.Category)),
		attribute.String("assistant.key", answer.Key),
	)
	s.metrics.RecordAssistantAnswer(string(answer.Category))
	s.logger.Debug("Assistant answered",
		zap.String("category", string(answer.Category)),
		zap.String("key", answer.Key),
		zap.Int("message_length", len(req.Message)),
	)

	return &inbound.AskResponse{
		Response:   answer.Text,
		Category:   string(answer.Category),
		MatchedKey: answer.Key,
	}, nil
}

// Glossary lists the techniques and substitutions the assistant knows
func (s *Service) Glossary(ctx context.Context) *inbound.GlossaryDTO {
	kb := s.resolver.KnowledgeBase()
	return &inbound.GlossaryDTO{
		Techniques:    toGlossary(kb.Techniques()),
		Substitutions: toGlossary(kb.Substitutions()),
	}
}

// Reply answers a single message, for callers that only need the text
func (s *Service) Reply(message string) string {
	return s.resolver.Resolve(message)
}

func toGlossary(entries []domain.Entry) []inbound.GlossaryEntryDTO {
	out := make([]inbound.GlossaryEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, inbound.GlossaryEntryDTO{Term: e.Key, Explanation: e.Text()})
	}
	return out
}
