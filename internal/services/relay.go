package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"spiritus-backend/internal/domain"
	"spiritus-backend/internal/models"
	"spiritus-backend/internal/textutil"
)

// TextGenerator is the upstream call the relay depends on.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// RelayService forwards one prompt per call. It keeps no conversation state.
type RelayService struct {
	generator TextGenerator
	logger    *slog.Logger
}

// NewRelayService accepts a nil generator: the relay then answers every
// request with domain.ErrServerMisconfigured.
func NewRelayService(generator TextGenerator, logger *slog.Logger) *RelayService {
	return &RelayService{generator: generator, logger: logger}
}

// Configured reports whether an upstream credential was provided.
func (s *RelayService) Configured() bool {
	return s.generator != nil
}

// Reply asks the archive persona and returns cleaned plain text.
func (s *RelayService) Reply(ctx context.Context, prompt string, lang models.Language) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", &domain.ValidationError{Message: "Prompt is required"}
	}
	if s.generator == nil {
		s.logger.Error("API key not configured")
		return "", domain.ErrServerMisconfigured
	}

	text, err := s.generator.GenerateText(ctx, SystemInstruction(lang), prompt)
	if err != nil {
		var upErr *domain.UpstreamError
		if !errors.As(err, &upErr) {
			upErr = &domain.UpstreamError{Err: err}
		}
		s.logger.Error("Gemini API error",
			"error", upErr.Err,
			"upstream_status", upErr.Status,
			"upstream_body", upErr.Body,
			"lang", lang,
		)
		return "", upErr
	}

	return textutil.Clean(text), nil
}
