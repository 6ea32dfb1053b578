// Package vision turns a short prompt into a monochrome archaeological image
// in two Gemini calls: prompt expansion, then image generation.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"spiritus-backend/internal/domain"
	"spiritus-backend/internal/gemini"
	"spiritus-backend/internal/models"
)

const aspectRatio = "16:9"

// Generator is the subset of *gemini.Client the vision client calls.
type Generator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
	GenerateImage(ctx context.Context, model, prompt, aspectRatio string) (*gemini.InlineData, error)
}

type Client struct {
	gen            Generator
	expansionModel string
	imageModel     string
	logger         *slog.Logger
}

func NewClient(gen Generator, expansionModel, imageModel string, logger *slog.Logger) *Client {
	return &Client{
		gen:            gen,
		expansionModel: expansionModel,
		imageModel:     imageModel,
		logger:         logger,
	}
}

// Manifest returns nil, nil when the model answered without an image.
func (c *Client) Manifest(ctx context.Context, prompt string) (*models.VisionResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &domain.ValidationError{Message: "vision prompt is empty"}
	}

	expanded := c.expand(ctx, prompt)

	img, err := c.gen.GenerateImage(ctx, c.imageModel, expanded+". Monochrome, dramatic chiaroscuro.", aspectRatio)
	if err != nil {
		return nil, fmt.Errorf("generate vision: %w", err)
	}
	if img == nil {
		c.logger.Info("no vision produced", "prompt", prompt)
		return nil, nil
	}

	return &models.VisionResult{
		MIMEType:       "image/png",
		Data:           base64.StdEncoding.EncodeToString(img.Data),
		ExpandedPrompt: expanded,
	}, nil
}

// expand falls back to the prompt itself when the expansion call fails.
func (c *Client) expand(ctx context.Context, prompt string) string {
	text, err := c.gen.GenerateText(ctx, c.expansionModel,
		"Description visuelle archéologique pour : "+prompt+". Style : Noir et blanc, contraste élevé, sacré.")
	if err != nil {
		c.logger.Warn("vision prompt expansion failed, using prompt as is", "error", err)
		return prompt
	}
	if strings.TrimSpace(text) == "" {
		return prompt
	}
	return text
}
