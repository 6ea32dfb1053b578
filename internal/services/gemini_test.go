package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	"spiritus-backend/internal/domain"
)

func TestNewGeminiService_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiService("  ", "gemini-2.0-flash", 5, discardLogger())
	if !errors.Is(err, domain.ErrServerMisconfigured) {
		t.Fatalf("expected ErrServerMisconfigured, got %v", err)
	}
}

func TestExtractText_FirstCandidateTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Osiris, "),
				genai.Blob{MIMEType: "image/png", Data: []byte{1}},
				genai.Text("seigneur des morts"),
			}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}

	if got := extractText(resp); got != "Osiris, seigneur des morts" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractText_Empty(t *testing.T) {
	if got := extractText(nil); got != "" {
		t.Errorf("expected empty text for nil response, got %q", got)
	}
	if got := extractText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("expected empty text without candidates, got %q", got)
	}
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}
	if got := extractText(resp); got != "" {
		t.Errorf("expected empty text without content, got %q", got)
	}
}

func TestUpstreamError_KeepsAPIStatusAndBody(t *testing.T) {
	apiErr := &googleapi.Error{Code: 403, Body: `{"error":"API key not valid"}`}

	err := upstreamError(fmt.Errorf("generate: %w", apiErr))
	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *domain.UpstreamError, got %T", err)
	}
	if upErr.Status != 403 || upErr.Body != `{"error":"API key not valid"}` {
		t.Fatalf("unexpected upstream error %+v", upErr)
	}
}

func TestUpstreamError_Unreachable(t *testing.T) {
	err := upstreamError(errors.New("no such host"))
	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) || upErr.Status != 0 {
		t.Fatalf("expected status-less upstream error, got %v", err)
	}
}

func TestAcquireRate_HonorsContext(t *testing.T) {
	s := &GeminiService{rateChan: newRateChan(1)}

	if err := s.acquireRate(context.Background()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.acquireRate(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while slots are taken, got %v", err)
	}

	s.releaseRate()
	if err := s.acquireRate(context.Background()); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}

func TestNewRateChan_AtLeastOneSlot(t *testing.T) {
	if got := cap(newRateChan(0)); got != 1 {
		t.Fatalf("expected 1 slot, got %d", got)
	}
	if got := len(newRateChan(3)); got != 3 {
		t.Fatalf("expected 3 free slots, got %d", got)
	}
}
