// Package insight researches a biblical topic in one structured Gemini call.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"google.golang.org/genai"

	"spiritus-backend/internal/domain"
	"spiritus-backend/internal/models"
	"spiritus-backend/internal/textutil"
)

// JSONGenerator returns schema-constrained JSON text.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error)
}

var insightSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"topic":             {Type: genai.TypeString},
		"explanation":       {Type: genai.TypeString},
		"verses":            {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"historicalContext": {Type: genai.TypeString},
	},
	Required: []string{"topic", "explanation", "verses", "historicalContext"},
}

var suggestedTopics = map[models.Language][]string{
	models.LangFR: {"Évangiles Perdus", "Le Mystère des Elohim", "Origines du Lévitique", "Apocalypse de Jean"},
	models.LangEN: {"Lost Gospels", "The Elohim Mystery", "Leviticus Origins", "Revelation of John"},
}

// SuggestedTopics lists ready-made research topics in lang.
func SuggestedTopics(lang models.Language) []string {
	topics, ok := suggestedTopics[lang]
	if !ok {
		topics = suggestedTopics[models.DefaultLanguage]
	}
	return append([]string(nil), topics...)
}

type Client struct {
	gen    JSONGenerator
	model  string
	logger *slog.Logger
}

func NewClient(gen JSONGenerator, model string, logger *slog.Logger) *Client {
	return &Client{gen: gen, model: model, logger: logger}
}

// rawInsight mirrors the schema with pointers so missing fields are detected.
type rawInsight struct {
	Topic             *string   `json:"topic"`
	Explanation       *string   `json:"explanation"`
	Verses            *[]string `json:"verses"`
	HistoricalContext *string   `json:"historicalContext"`
}

func (r *rawInsight) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Topic, validation.NotNil),
		validation.Field(&r.Explanation, validation.NotNil),
		validation.Field(&r.Verses, validation.NotNil),
		validation.Field(&r.HistoricalContext, validation.NotNil),
	)
}

// Research returns the whole insight or an error, never a partial result.
func (c *Client) Research(ctx context.Context, topic string, lang models.Language) (*models.BibleInsight, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, &domain.ValidationError{Message: "topic is empty"}
	}

	prompt := fmt.Sprintf(
		"Fournir une analyse archéologique et textuelle sur : %s. Langue : %s. Pas d'astérisques.",
		topic, lang.FrenchName(),
	)

	rawText, err := c.gen.GenerateJSON(ctx, c.model, prompt, insightSchema)
	if err != nil {
		return nil, fmt.Errorf("research %q: %w", topic, err)
	}

	insight, err := parseInsight(rawText)
	if err != nil {
		c.logger.Warn("structured insight rejected", "topic", topic, "error", err)
		return nil, err
	}
	return insight, nil
}

func parseInsight(rawText string) (*models.BibleInsight, error) {
	rawText = strings.TrimSpace(rawText)
	rawText = strings.TrimPrefix(rawText, "```json")
	rawText = strings.TrimPrefix(rawText, "```")
	rawText = strings.TrimSuffix(rawText, "```")
	rawText = strings.TrimSpace(rawText)

	var raw rawInsight
	if err := json.Unmarshal([]byte(rawText), &raw); err != nil {
		return nil, domain.Malformed("parse insight: %v", err)
	}
	if err := raw.Validate(); err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			return nil, domain.Malformed("insight fields: %v", errs)
		}
		return nil, domain.Malformed("insight: %v", err)
	}

	return &models.BibleInsight{
		Topic:             *raw.Topic,
		Explanation:       textutil.Clean(*raw.Explanation),
		Verses:            *raw.Verses,
		HistoricalContext: textutil.Clean(*raw.HistoricalContext),
	}, nil
}
