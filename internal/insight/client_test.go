package insight

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"google.golang.org/genai"

	"spiritus-backend/internal/domain"
	"spiritus-backend/internal/models"
)

type stubGenerator struct {
	text string
	err  error

	calls     int
	gotModel  string
	gotPrompt string
	gotSchema *genai.Schema
}

func (s *stubGenerator) GenerateJSON(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error) {
	s.calls++
	s.gotModel = model
	s.gotPrompt = prompt
	s.gotSchema = schema
	return s.text, s.err
}

func newTestClient(gen *stubGenerator) *Client {
	return NewClient(gen, "gemini-2.0-flash", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const validInsight = `{
  "topic": "Elohim",
  "explanation": "Le **pluriel** majestatif.\n\n\n\nSuite",
  "verses": ["Genèse 1:1", "Psaume *82*:1"],
  "historicalContext": "Ugarit, *XIVe* siècle av. J.-C."
}`

func TestResearch_Success(t *testing.T) {
	gen := &stubGenerator{text: validInsight}

	got, err := newTestClient(gen).Research(context.Background(), "Le Mystère des Elohim", models.LangFR)
	if err != nil {
		t.Fatalf("Research() error: %v", err)
	}
	if got.Topic != "Elohim" {
		t.Errorf("topic = %q", got.Topic)
	}
	if got.Explanation != "Le pluriel majestatif.\n\nSuite" {
		t.Errorf("explanation not cleaned: %q", got.Explanation)
	}
	if got.HistoricalContext != "Ugarit, XIVe siècle av. J.-C." {
		t.Errorf("historical context not cleaned: %q", got.HistoricalContext)
	}
	if len(got.Verses) != 2 || got.Verses[1] != "Psaume *82*:1" {
		t.Errorf("verses must be left untouched: %v", got.Verses)
	}

	want := "Fournir une analyse archéologique et textuelle sur : Le Mystère des Elohim. Langue : Français. Pas d'astérisques."
	if gen.gotPrompt != want {
		t.Errorf("prompt = %q", gen.gotPrompt)
	}
	if gen.gotModel != "gemini-2.0-flash" {
		t.Errorf("model = %q", gen.gotModel)
	}
	if gen.gotSchema == nil || len(gen.gotSchema.Required) != 4 || gen.gotSchema.Properties["verses"].Type != genai.TypeArray {
		t.Errorf("schema not sent")
	}
}

func TestResearch_CodeFences(t *testing.T) {
	gen := &stubGenerator{text: "```json\n" + validInsight + "\n```"}

	if _, err := newTestClient(gen).Research(context.Background(), "x", models.LangEN); err != nil {
		t.Fatalf("fenced JSON must be accepted: %v", err)
	}
	if !strings.Contains(gen.gotPrompt, "Langue : Anglais.") {
		t.Errorf("prompt must request English output: %q", gen.gotPrompt)
	}
}

func TestResearch_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing verses", `{"topic":"a","explanation":"b","historicalContext":"c"}`},
		{"null verses", `{"topic":"a","explanation":"b","verses":null,"historicalContext":"c"}`},
		{"missing topic", `{"explanation":"b","verses":[],"historicalContext":"c"}`},
		{"not json", `The Elohim are...`},
		{"empty", ``},
		{"wrong type", `{"topic":"a","explanation":"b","verses":"Gen 1:1","historicalContext":"c"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := newTestClient(&stubGenerator{text: tc.text}).Research(context.Background(), "x", models.LangFR)
			if !errors.Is(err, domain.ErrMalformedStructuredResponse) {
				t.Fatalf("expected ErrMalformedStructuredResponse, got %v", err)
			}
			if got != nil {
				t.Errorf("no partial insight may be returned")
			}
		})
	}
}

func TestResearch_EmptyVersesAccepted(t *testing.T) {
	gen := &stubGenerator{text: `{"topic":"a","explanation":"b","verses":[],"historicalContext":"c"}`}

	got, err := newTestClient(gen).Research(context.Background(), "x", models.LangFR)
	if err != nil {
		t.Fatalf("Research() error: %v", err)
	}
	if got.Verses == nil || len(got.Verses) != 0 {
		t.Errorf("expected empty verses, got %v", got.Verses)
	}
}

func TestResearch_BlankTopicAndUpstream(t *testing.T) {
	gen := &stubGenerator{}
	if _, err := newTestClient(gen).Research(context.Background(), "  ", models.LangFR); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("upstream must not be called for a blank topic")
	}

	gen.err = &domain.UpstreamError{Status: 503}
	if _, err := newTestClient(gen).Research(context.Background(), "x", models.LangFR); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestSuggestedTopics(t *testing.T) {
	if got := SuggestedTopics(models.LangEN); got[0] != "Lost Gospels" || len(got) != 4 {
		t.Errorf("unexpected English topics %v", got)
	}
	if got := SuggestedTopics(models.LangFR); got[3] != "Apocalypse de Jean" {
		t.Errorf("unexpected French topics %v", got)
	}
	if got := SuggestedTopics("de"); got[0] != "Évangiles Perdus" {
		t.Errorf("unknown languages fall back to French, got %v", got)
	}
}
