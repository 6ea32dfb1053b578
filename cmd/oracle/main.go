package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"spiritus-backend/internal/audio"
	"spiritus-backend/internal/config"
	"spiritus-backend/internal/gemini"
	"spiritus-backend/internal/insight"
	"spiritus-backend/internal/models"
	"spiritus-backend/internal/oracle"
	"spiritus-backend/internal/vision"
	"spiritus-backend/internal/worker"
)

const usage = `Spiritus oracle - terminal front-end of the archive

Usage:
  oracle [flags] chat              talk with the archive (one line per message)
  oracle [flags] deity <name>      profile a deity
  oracle [flags] research <topic>  structured biblical insight
  oracle [flags] vision <prompt>   generate a monochrome vision (PNG, or a data URI with -out "")
  oracle [flags] topics            list suggested research topics
  oracle [flags] gods              list quick-link deities

Flags:
`

func main() {
	cfg := config.LoadClient()

	fs := flag.NewFlagSet("oracle", flag.ExitOnError)
	lang := fs.String("lang", cfg.Language, "output language (fr|en)")
	speech := fs.Bool("speech", cfg.Speech, "speak chat replies")
	relayURL := fs.String("relay", cfg.RelayURL, "chat relay base URL")
	outDir := fs.String("out", cfg.OutputDir, "directory for visions and speech; empty keeps nothing on disk")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	language, err := models.ParseLanguage(*lang)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	cfg.Speech = *speech
	cfg.RelayURL = strings.TrimRight(*relayURL, "/")
	cfg.OutputDir = strings.TrimSpace(*outDir)

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	app := &app{cfg: cfg, lang: language, logger: logger}
	if err := app.run(ctx, args[0], strings.TrimSpace(strings.Join(args[1:], " "))); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.ClientConfig
	lang   models.Language
	logger *slog.Logger
}

func (a *app) run(ctx context.Context, cmd, arg string) error {
	relay := oracle.NewRelayClient(a.cfg.RelayURL, nil)

	switch cmd {
	case "chat":
		return a.chat(ctx, relay)
	case "deity":
		if arg == "" {
			return errors.New("deity name is required")
		}
		text, err := oracle.NewExplorer(relay).Profile(ctx, arg, a.lang)
		fmt.Println(text)
		return err
	case "research":
		if arg == "" {
			return errors.New("topic is required")
		}
		return a.research(ctx, arg)
	case "vision":
		if arg == "" {
			return errors.New("prompt is required")
		}
		return a.vision(ctx, arg)
	case "topics":
		for _, t := range insight.SuggestedTopics(a.lang) {
			fmt.Println(t)
		}
		return nil
	case "gods":
		for _, g := range oracle.QuickLinks() {
			fmt.Println(g)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) chat(ctx context.Context, relay *oracle.RelayClient) error {
	var speech *oracle.Speech
	if a.cfg.Speech {
		client, err := gemini.NewClient(ctx, a.cfg.GeminiAPIKey, a.logger)
		if err != nil {
			a.logger.Warn("speech disabled", "error", err)
		} else {
			runner := worker.NewRunner(a.logger)
			runner.Start(ctx)
			player := audio.NewPlayer(a.speechSink())
			defer func() {
				runner.Stop()
				a.logger.Info("speech summary",
					"played", player.Played(),
					"completed", runner.Completed(),
					"failed", runner.Failures(),
					"superseded", runner.Superseded(),
				)
			}()

			speech = &oracle.Speech{
				Synth:   client,
				Model:   a.cfg.GeminiSpeechModel,
				Voice:   a.cfg.GeminiVoice,
				Player:  player,
				Actions: runner,
			}
		}
	}

	conv := oracle.NewConversation(relay, a.lang, speech, a.logger)
	fmt.Println(a.lang.Pick("Archive ouverte. /quit pour sortir.", "Archive open. /quit to leave."))

	lines, readErr := readLines(os.Stdin)
	for {
		fmt.Print("> ")
		line, ok, err := nextLine(ctx, lines, readErr)
		if !ok {
			fmt.Println()
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}

		msg, err := conv.Send(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", msg.Content)

		if ctx.Err() != nil {
			return nil
		}
	}
}

// speechSink writes WAV files under the output dir, or drops audio when
// there is none.
func (a *app) speechSink() audio.Sink {
	if a.cfg.OutputDir == "" {
		return audio.DiscardSink{}
	}
	return &audio.WAVSink{Dir: filepath.Join(a.cfg.OutputDir, "speech"), Command: a.cfg.Player}
}

// readLines feeds r line by line so callers can select on cancellation
// while a read blocks. The error channel yields once after lines closes.
func readLines(r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

// nextLine waits for input or cancellation. ok is false once the session
// should end; err carries the read error, if any.
func nextLine(ctx context.Context, lines <-chan string, readErr <-chan error) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, nil
	case line, ok := <-lines:
		if !ok {
			return "", false, <-readErr
		}
		return line, true, nil
	}
}

func (a *app) research(ctx context.Context, topic string) error {
	client, err := gemini.NewClient(ctx, a.cfg.GeminiAPIKey, a.logger)
	if err != nil {
		return err
	}

	result, err := insight.NewClient(client, a.cfg.GeminiInsightModel, a.logger).Research(ctx, topic, a.lang)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n\n%s\n\n", strings.ToUpper(result.Topic), result.Explanation)
	for _, v := range result.Verses {
		fmt.Printf("  « %s »\n", v)
	}
	fmt.Printf("\n%s\n", result.HistoricalContext)
	return nil
}

func (a *app) vision(ctx context.Context, prompt string) error {
	client, err := gemini.NewClient(ctx, a.cfg.GeminiAPIKey, a.logger)
	if err != nil {
		return err
	}

	result, err := vision.NewClient(client, a.cfg.GeminiExpansionModel, a.cfg.GeminiImageModel, a.logger).Manifest(ctx, prompt)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Println(a.lang.Pick("Aucune vision n'a émergé.", "No vision emerged."))
		return nil
	}

	if a.cfg.OutputDir == "" {
		fmt.Println(result.DataURI())
		return nil
	}

	data, err := result.Bytes()
	if err != nil {
		return fmt.Errorf("decode vision: %w", err)
	}
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(a.cfg.OutputDir, fmt.Sprintf("vision-%s.png", time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write vision: %w", err)
	}

	fmt.Println(path)
	return nil
}
