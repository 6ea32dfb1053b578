package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"spiritus-backend/internal/audio"
	"spiritus-backend/internal/config"
)

func TestNextLine_CancelWhileReadBlocks(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	lines, readErr := readLines(pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		_, ok, _ := nextLine(ctx, lines, readErr)
		done <- ok
	}()

	cancel()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected the session to end on cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation did not interrupt the blocked read")
	}
}

func TestNextLine_LinesThenEOF(t *testing.T) {
	lines, readErr := readLines(strings.NewReader("hello\n/quit\n"))
	ctx := context.Background()

	for _, want := range []string{"hello", "/quit"} {
		got, ok, err := nextLine(ctx, lines, readErr)
		if !ok || err != nil || got != want {
			t.Fatalf("nextLine = %q %v %v, want %q", got, ok, err, want)
		}
	}
	if _, ok, err := nextLine(ctx, lines, readErr); ok || err != nil {
		t.Fatalf("expected clean EOF, got ok=%v err=%v", ok, err)
	}
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) { return 0, errors.New("tty gone") }

func TestNextLine_ReadError(t *testing.T) {
	lines, readErr := readLines(failingReader{})
	if _, ok, err := nextLine(context.Background(), lines, readErr); ok || err == nil {
		t.Fatalf("expected read error, got ok=%v err=%v", ok, err)
	}
}

func TestSpeechSink(t *testing.T) {
	a := &app{cfg: &config.ClientConfig{}}
	if _, ok := a.speechSink().(audio.DiscardSink); !ok {
		t.Errorf("empty output dir must discard speech")
	}

	a.cfg.OutputDir = t.TempDir()
	if _, ok := a.speechSink().(*audio.WAVSink); !ok {
		t.Errorf("output dir must write WAV files")
	}
}
