package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSink writes every buffer to a WAV file in Dir. When Command is set
// (e.g. "aplay", "afplay") the file is handed to it and Play waits for the
// player to exit.
type WAVSink struct {
	Dir     string
	Command string

	seq atomic.Int64
}

func (s *WAVSink) Play(ctx context.Context, buf *Buffer) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create speech dir: %w", err)
	}

	name := fmt.Sprintf("speech-%s-%03d.wav", time.Now().Format("20060102-150405"), s.seq.Add(1))
	path := filepath.Join(s.Dir, name)
	if err := WriteWAV(path, buf); err != nil {
		return err
	}

	if s.Command == "" {
		return nil
	}
	cmd := exec.CommandContext(ctx, s.Command, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.Command, err, out)
	}
	return nil
}

// WriteWAV encodes buf as 16-bit PCM WAV.
func WriteWAV(path string, buf *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, buf.SampleRate, 16, buf.Channels, 1)
	ib := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: buf.Channels, SampleRate: buf.SampleRate},
		Data:           interleave(buf),
		SourceBitDepth: 16,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
