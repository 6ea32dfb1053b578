package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"spiritus-backend/internal/domain"
)

// GeminiService is the relay's server-side text generator.
type GeminiService struct {
	client   *genai.Client
	model    string
	logger   *slog.Logger
	rateChan chan struct{} // Token bucket
}

func NewGeminiService(apiKey, model string, concurrentReqs int, logger *slog.Logger) (*GeminiService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.ErrServerMisconfigured
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiService{
		client:   client,
		model:    model,
		logger:   logger,
		rateChan: newRateChan(concurrentReqs),
	}, nil
}

func newRateChan(concurrentReqs int) chan struct{} {
	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}
	return rateChan
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// GenerateText runs one generation with the given system instruction.
// Any failure is returned as *domain.UpstreamError.
func (s *GeminiService) GenerateText(ctx context.Context, systemInstruction, prompt string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", &domain.UpstreamError{Err: err}
	}
	defer s.releaseRate()

	// The system instruction depends on the request language.
	model := s.client.GenerativeModel(s.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", upstreamError(err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			s.logger.Warn("gemini stopped early",
				"candidate", i,
				"finish_reason", cand.FinishReason.String(),
				"token_count", cand.TokenCount,
			)
		}
	}

	return extractText(resp), nil
}

// upstreamError keeps the HTTP status and body of API failures for diagnostics.
func upstreamError(err error) error {
	upErr := &domain.UpstreamError{Err: err}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		upErr.Status = apiErr.Code
		upErr.Body = apiErr.Body
		if upErr.Body == "" {
			upErr.Body = apiErr.Message
		}
	}
	return upErr
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
