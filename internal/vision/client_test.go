package vision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"spiritus-backend/internal/domain"
	"spiritus-backend/internal/gemini"
)

type stubGenerator struct {
	text    string
	textErr error
	img     *gemini.InlineData
	imgErr  error

	textCalls      int
	gotTextModel   string
	gotTextPrompt  string
	gotImageModel  string
	gotImagePrompt string
	gotAspect      string
}

func (s *stubGenerator) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	s.textCalls++
	s.gotTextModel = model
	s.gotTextPrompt = prompt
	return s.text, s.textErr
}

func (s *stubGenerator) GenerateImage(ctx context.Context, model, prompt, aspectRatio string) (*gemini.InlineData, error) {
	s.gotImageModel = model
	s.gotImagePrompt = prompt
	s.gotAspect = aspectRatio
	return s.img, s.imgErr
}

func newTestClient(gen *stubGenerator) *Client {
	return NewClient(gen, "gemini-3-flash-preview", "gemini-2.5-flash-image", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestManifest_Success(t *testing.T) {
	gen := &stubGenerator{
		text: "Un temple sumérien sous un ciel d'orage",
		img:  &gemini.InlineData{MIMEType: "image/jpeg", Data: []byte("img")},
	}

	got, err := newTestClient(gen).Manifest(context.Background(), "ziggurat")
	if err != nil {
		t.Fatalf("Manifest() error: %v", err)
	}
	if got.DataURI() != "data:image/png;base64,aW1n" {
		t.Errorf("data uri = %q", got.DataURI())
	}
	if got.ExpandedPrompt != "Un temple sumérien sous un ciel d'orage" {
		t.Errorf("expanded prompt = %q", got.ExpandedPrompt)
	}

	if gen.gotTextPrompt != "Description visuelle archéologique pour : ziggurat. Style : Noir et blanc, contraste élevé, sacré." {
		t.Errorf("expansion prompt = %q", gen.gotTextPrompt)
	}
	if gen.gotImagePrompt != "Un temple sumérien sous un ciel d'orage. Monochrome, dramatic chiaroscuro." {
		t.Errorf("image prompt = %q", gen.gotImagePrompt)
	}
	if gen.gotTextModel != "gemini-3-flash-preview" || gen.gotImageModel != "gemini-2.5-flash-image" {
		t.Errorf("unexpected models %q %q", gen.gotTextModel, gen.gotImageModel)
	}
	if gen.gotAspect != "16:9" {
		t.Errorf("aspect ratio = %q", gen.gotAspect)
	}
}

func TestManifest_ExpansionFailureStillProceeds(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		textErr error
	}{
		{"error", "", errors.New("model overloaded")},
		{"empty text", "  ", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &stubGenerator{
				text:    tc.text,
				textErr: tc.textErr,
				img:     &gemini.InlineData{Data: []byte{1, 2, 3}},
			}

			got, err := newTestClient(gen).Manifest(context.Background(), "Anubis")
			if err != nil {
				t.Fatalf("Manifest() error: %v", err)
			}
			if got == nil {
				t.Fatal("expected a vision")
			}
			if gen.gotImagePrompt != "Anubis. Monochrome, dramatic chiaroscuro." {
				t.Errorf("image prompt = %q", gen.gotImagePrompt)
			}
		})
	}
}

func TestManifest_NoImageIsNotAnError(t *testing.T) {
	gen := &stubGenerator{text: "x"}

	got, err := newTestClient(gen).Manifest(context.Background(), "x")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", got, err)
	}
}

func TestManifest_Failures(t *testing.T) {
	gen := &stubGenerator{}
	if _, err := newTestClient(gen).Manifest(context.Background(), " "); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if gen.textCalls != 0 {
		t.Errorf("no upstream call for a blank prompt")
	}

	gen.imgErr = &domain.UpstreamError{Status: 400, Body: "safety"}
	_, err := newTestClient(gen).Manifest(context.Background(), "x")
	if !errors.Is(err, domain.ErrUpstream) || !strings.Contains(err.Error(), "generate vision") {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
}
