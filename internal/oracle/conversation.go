// Package oracle holds the chat-side clients of the archive: the
// conversation with its spoken replies and the deity explorer.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"spiritus-backend/internal/audio"
	"spiritus-backend/internal/domain"
	"spiritus-backend/internal/models"
	"spiritus-backend/internal/textutil"
	"spiritus-backend/internal/worker"
)

const (
	// speechMaxChars bounds the text sent to speech synthesis.
	speechMaxChars = 1000

	noResponseText = "No response received"
)

// ErrSendInFlight is returned when Send is called while a previous send
// has not completed.
var ErrSendInFlight = errors.New("a message is already being sent")

// Relay answers one chat prompt.
type Relay interface {
	Chat(ctx context.Context, prompt string, history []models.ChatMessage, lang models.Language) (string, error)
}

// SpeechSynthesizer turns text into raw 16-bit PCM.
type SpeechSynthesizer interface {
	SynthesizeSpeech(ctx context.Context, model, text, voice string) ([]byte, error)
}

// PostActions runs best-effort work after a reply, usually a *worker.Runner.
type PostActions interface {
	Submit(name string, task worker.Task) bool
}

// Speech configures spoken replies.
type Speech struct {
	Synth   SpeechSynthesizer
	Model   string
	Voice   string
	Player  *audio.Player
	Actions PostActions
}

// Conversation is one chat session with the archive. History only grows and
// every user message is followed by exactly one model message.
type Conversation struct {
	relay  Relay
	lang   models.Language
	speech *Speech
	logger *slog.Logger

	mu      sync.Mutex
	history []models.ChatMessage

	sending atomic.Bool
}

// NewConversation creates an empty session. speech may be nil to keep
// replies silent.
func NewConversation(relay Relay, lang models.Language, speech *Speech, logger *slog.Logger) *Conversation {
	return &Conversation{
		relay:  relay,
		lang:   lang,
		speech: speech,
		logger: logger,
	}
}

func (c *Conversation) Language() models.Language { return c.lang }

// Send asks the archive and returns the model message appended to the
// history. Relay failures become a localized error message, not an error.
func (c *Conversation) Send(ctx context.Context, text string) (models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return models.ChatMessage{}, &domain.ValidationError{Message: "message is empty"}
	}
	if !c.sending.CompareAndSwap(false, true) {
		return models.ChatMessage{}, ErrSendInFlight
	}
	defer c.sending.Store(false)

	c.mu.Lock()
	prior := append([]models.ChatMessage(nil), c.history...)
	c.history = append(c.history, models.NewChatMessage(models.RoleUser, text))
	c.mu.Unlock()

	reply, err := c.relay.Chat(ctx, text, prior, c.lang)

	var msg models.ChatMessage
	switch {
	case err != nil:
		c.logger.Warn("chat relay failed", "error", err, "lang", c.lang)
		msg = models.NewChatMessage(models.RoleModel, c.lang.Pick("Signal perdu dans l'abysse.", "Signal lost in the abyss."))
	case reply == "":
		msg = models.NewChatMessage(models.RoleModel, noResponseText)
	default:
		msg = models.NewChatMessage(models.RoleModel, reply)
	}

	c.mu.Lock()
	c.history = append(c.history, msg)
	c.mu.Unlock()

	if err == nil && reply != "" {
		c.speak(reply)
	}
	return msg, nil
}

// History returns a copy of the messages so far.
func (c *Conversation) History() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ChatMessage(nil), c.history...)
}

func (c *Conversation) speak(reply string) {
	s := c.speech
	if s == nil || s.Synth == nil || s.Player == nil || s.Actions == nil {
		return
	}

	text := textutil.Truncate(reply, speechMaxChars)
	s.Actions.Submit("speech", func(ctx context.Context) error {
		pcm, err := s.Synth.SynthesizeSpeech(ctx, s.Model, text, s.Voice)
		if err != nil {
			return fmt.Errorf("synthesize speech: %w", err)
		}
		if len(pcm) == 0 {
			return nil
		}
		buf := audio.Decode(pcm, audio.SpeechSampleRate, audio.SpeechChannels)
		if err := s.Player.Play(ctx, buf); err != nil {
			return fmt.Errorf("play speech: %w", err)
		}
		c.logger.Debug("reply spoken", "duration", buf.Duration(), "lang", c.lang)
		return nil
	})
}
