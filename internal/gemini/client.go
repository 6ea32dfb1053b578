// Package gemini wraps the Gemini models API for the terminal clients: plain
// text, schema-constrained JSON, speech synthesis and image generation.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"spiritus-backend/internal/domain"
)

type modelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var newGenaiClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// InlineData is a binary part returned by the model.
type InlineData struct {
	MIMEType string
	Data     []byte
}

// Client issues one GenerateContent call per method. It is safe for
// concurrent use.
type Client struct {
	models modelsClient
	logger *slog.Logger
}

// NewClient returns domain.ErrServerMisconfigured when apiKey is empty.
func NewClient(ctx context.Context, apiKey string, logger *slog.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required: %w", domain.ErrServerMisconfigured)
	}

	client, err := newGenaiClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{models: client.Models, logger: logger}, nil
}

// GenerateText returns the visible text of the first candidate.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.generate(ctx, model, prompt, nil)
	if err != nil {
		return "", err
	}
	return extractVisibleText(resp), nil
}

// GenerateJSON asks for application/json output constrained by schema and
// returns the raw JSON text. The caller validates it.
func (c *Client) GenerateJSON(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error) {
	resp, err := c.generate(ctx, model, prompt, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", err
	}
	return extractVisibleText(resp), nil
}

// SynthesizeSpeech reads text aloud with a prebuilt voice and returns the raw
// PCM bytes, or nil when the model produced no audio.
func (c *Client) SynthesizeSpeech(ctx context.Context, model, text, voice string) ([]byte, error) {
	resp, err := c.generate(ctx, model, text, &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	blob := firstInlineData(resp)
	if blob == nil {
		return nil, nil
	}
	return blob.Data, nil
}

// GenerateImage returns the first inline image part, or nil when the model
// answered without one.
func (c *Client) GenerateImage(ctx context.Context, model, prompt, aspectRatio string) (*InlineData, error) {
	var cfg *genai.GenerateContentConfig
	if aspectRatio != "" {
		cfg = &genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: aspectRatio},
		}
	}

	resp, err := c.generate(ctx, model, prompt, cfg)
	if err != nil {
		return nil, err
	}
	return firstInlineData(resp), nil
}

func (c *Client) generate(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("gemini model is required: %w", domain.ErrServerMisconfigured)
	}

	resp, err := c.models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		upErr := upstreamError(err)
		c.logger.Error("gemini request failed",
			"model", model,
			"upstream_status", upErr.Status,
			"upstream_body", upErr.Body,
			"error", err,
		)
		return nil, upErr
	}
	return resp, nil
}

// upstreamError keeps the HTTP status and message of API errors.
func upstreamError(err error) *domain.UpstreamError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{Status: apiErr.Code, Body: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &domain.UpstreamError{Status: apiErrPtr.Code, Body: apiErrPtr.Message, Err: err}
	}
	return &domain.UpstreamError{Err: err}
}

func firstParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

func extractVisibleText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, part := range firstParts(resp) {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func firstInlineData(resp *genai.GenerateContentResponse) *InlineData {
	for _, part := range firstParts(resp) {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		return &InlineData{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}
	}
	return nil
}
