// Command runcoach is the main entry point for the runcoach activity server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/TheRemi120/runcoach/internal/activity"
	"github.com/TheRemi120/runcoach/internal/activity/postgres"
	"github.com/TheRemi120/runcoach/internal/coach"
	"github.com/TheRemi120/runcoach/internal/config"
	"github.com/TheRemi120/runcoach/internal/observe"
	"github.com/TheRemi120/runcoach/internal/pipeline"
	"github.com/TheRemi120/runcoach/internal/resilience"
	"github.com/TheRemi120/runcoach/internal/review"
	"github.com/TheRemi120/runcoach/internal/server"
	"github.com/TheRemi120/runcoach/pkg/provider/chat"
	chatanyllm "github.com/TheRemi120/runcoach/pkg/provider/chat/anyllm"
	chatopenai "github.com/TheRemi120/runcoach/pkg/provider/chat/openai"
	"github.com/TheRemi120/runcoach/pkg/provider/stt"
	sttelevenlabs "github.com/TheRemi120/runcoach/pkg/provider/stt/elevenlabs"
	"github.com/TheRemi120/runcoach/pkg/provider/stt/whisper"
	"github.com/TheRemi120/runcoach/pkg/provider/tts"
	ttselevenlabs "github.com/TheRemi120/runcoach/pkg/provider/tts/elevenlabs"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "runcoach: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "runcoach: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("runcoach starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "runcoach",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsShutdown(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	store, closeStore, err := buildStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open activity store", "err", err)
		return 1
	}
	defer closeStore()

	transcriber, err := buildTranscriber(cfg.Providers.STT)
	if err != nil {
		slog.Error("failed to build transcription provider", "err", err)
		return 1
	}

	completer, err := buildCompleter(cfg.Providers.Chat)
	if err != nil {
		slog.Error("failed to build chat provider", "err", err)
		return 1
	}

	synth, err := buildSynthesizer(cfg.Providers.TTS)
	if err != nil {
		slog.Error("failed to build speech provider", "err", err)
		return 1
	}

	engine := review.NewEngine(completer, review.WithLogger(logger))

	orch := pipeline.New(transcriber, engine, store,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
	)

	coachOpts := []coach.Option{
		coach.WithMetrics(metrics),
		coach.WithLogger(logger),
	}
	if completer != nil {
		coachOpts = append(coachOpts, coach.WithCompleter(completer))
	}
	if synth != nil {
		coachOpts = append(coachOpts, coach.WithSynthesizer(synth))
	}
	co := coach.New(store, coachOpts...)

	srv := server.New(store, orch, co, cfg.Auth.JWTSecret,
		server.WithLogger(logger),
		server.WithMetrics(metrics),
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server ready", "addr", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildStore opens the configured activity store. An empty DSN selects the
// in-memory store.
func buildStore(ctx context.Context, cfg config.StoreConfig) (activity.Store, func(), error) {
	if cfg.DSN == "" {
		slog.Warn("no store DSN configured, using in-memory store")
		return activity.NewMemStore(), func() {}, nil
	}
	st, err := postgres.NewStore(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("connected to postgres store")
	return st, st.Close, nil
}

// buildTranscriber constructs the primary transcription backend plus the
// optional fallback, wrapped in a failover chain with circuit breakers.
func buildTranscriber(cfg config.StageConfig) (stt.Transcriber, error) {
	primary, err := newTranscriber(cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("stt primary %q: %w", cfg.Primary.Name, err)
	}
	chain := resilience.NewTranscriber(cfg.Primary.Name, primary, resilience.BreakerConfig{})
	if cfg.Fallback != nil {
		fallback, err := newTranscriber(*cfg.Fallback)
		if err != nil {
			return nil, fmt.Errorf("stt fallback %q: %w", cfg.Fallback.Name, err)
		}
		chain.Add(cfg.Fallback.Name, fallback)
	}
	slog.Info("provider created", "kind", "stt", "name", cfg.Primary.Name)
	return chain, nil
}

func newTranscriber(entry config.ProviderEntry) (stt.Transcriber, error) {
	switch entry.Name {
	case "elevenlabs":
		var opts []sttelevenlabs.Option
		if entry.BaseURL != "" {
			opts = append(opts, sttelevenlabs.WithEndpoint(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, sttelevenlabs.WithModel(entry.Model))
		}
		return sttelevenlabs.New(entry.APIKey, opts...)
	case "whisper":
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		return whisper.New(entry.BaseURL, opts...)
	default:
		return nil, fmt.Errorf("unknown stt provider %q", entry.Name)
	}
}

// buildCompleter constructs the review structuring backend. A missing chat
// section is allowed; the pipeline falls back to the heuristic formatter.
func buildCompleter(cfg config.StageConfig) (chat.Completer, error) {
	if cfg.Primary.Name == "" {
		slog.Warn("no chat provider configured, reviews use the heuristic formatter")
		return nil, nil
	}
	primary, err := newCompleter(cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("chat primary %q: %w", cfg.Primary.Name, err)
	}
	chain := resilience.NewCompleter(cfg.Primary.Name, primary, resilience.BreakerConfig{})
	if cfg.Fallback != nil {
		fallback, err := newCompleter(*cfg.Fallback)
		if err != nil {
			return nil, fmt.Errorf("chat fallback %q: %w", cfg.Fallback.Name, err)
		}
		chain.Add(cfg.Fallback.Name, fallback)
	}
	slog.Info("provider created", "kind", "chat", "name", cfg.Primary.Name, "model", cfg.Primary.Model)
	return chain, nil
}

func newCompleter(entry config.ProviderEntry) (chat.Completer, error) {
	switch entry.Name {
	case "openai":
		var opts []chatopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, chatopenai.WithBaseURL(entry.BaseURL))
		}
		return chatopenai.New(entry.APIKey, entry.Model, opts...)
	case "mistral", "groq", "ollama":
		var opts []anyllmlib.Option
		if entry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return chatanyllm.New(entry.Name, entry.Model, opts...)
	default:
		return nil, fmt.Errorf("unknown chat provider %q", entry.Name)
	}
}

// buildSynthesizer constructs the optional coach voice backend.
func buildSynthesizer(entry config.ProviderEntry) (tts.Synthesizer, error) {
	if entry.Name == "" {
		return nil, nil
	}
	switch entry.Name {
	case "elevenlabs":
		var opts []ttselevenlabs.Option
		if entry.BaseURL != "" {
			opts = append(opts, ttselevenlabs.WithEndpoint(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, ttselevenlabs.WithModel(entry.Model))
		}
		s, err := ttselevenlabs.New(entry.APIKey, entry.Voice, opts...)
		if err != nil {
			return nil, fmt.Errorf("tts %q: %w", entry.Name, err)
		}
		slog.Info("provider created", "kind", "tts", "name", entry.Name, "voice", entry.Voice)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown tts provider %q", entry.Name)
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
