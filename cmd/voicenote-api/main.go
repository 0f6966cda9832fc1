package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/PabloGalante/voicenote/internal/adapters/http"
	"github.com/PabloGalante/voicenote/internal/adapters/llm"
	"github.com/PabloGalante/voicenote/internal/adapters/speech"
	firestorestore "github.com/PabloGalante/voicenote/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/voicenote/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/voicenote/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/voicenote/internal/app/contact"
	"github.com/PabloGalante/voicenote/internal/app/notes"
	"github.com/PabloGalante/voicenote/internal/app/summary"
	"github.com/PabloGalante/voicenote/internal/app/transcription"
	"github.com/PabloGalante/voicenote/internal/config"
	"github.com/PabloGalante/voicenote/internal/domain"
	"github.com/PabloGalante/voicenote/internal/observability"
)

func main() {
	if err := run(); err != nil {
		observability.Logger().Error("voicenote api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, closeLog := observability.Setup(observability.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer closeLog()

	log.Info("starting voicenote api",
		"mode", cfg.Mode,
		"env", cfg.Environment,
		"llm", cfg.LLMProvider,
		"storage", cfg.StorageBackend,
	)

	// Storage: Firestore, SQLite or memory
	noteStore, contactStore, closeStore, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	llmClient, err := newLLM(ctx, cfg, log)
	if err != nil {
		return err
	}

	var prompts domain.PromptSource
	if cfg.PromptFile != "" {
		w, err := llm.NewPromptWatcher(cfg.PromptFile, summary.DefaultPrompt)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Watch(ctx); err != nil {
				log.Warn("prompt watcher stopped", "error", err)
			}
		}()
		prompts = w
		log.Info("summary prompt loaded", "file", cfg.PromptFile)
	}

	svc := httpadapter.Services{
		Notes:         notes.NewService(noteStore),
		Contact:       contact.NewService(contactStore),
		Summary:       summary.NewService(llmClient, prompts),
		Transcription: transcription.NewService(newTranscriber(cfg, log)),
	}

	handler := httpadapter.NewServer(svc, httpadapter.Options{
		APIKey:         cfg.APIKey,
		Production:     cfg.Production(),
		CORS:           cfg.CORSEnabled,
		MaxJSONBytes:   cfg.MaxJSONBytes,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("voicenote api listening", "addr", cfg.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.NoteStore, domain.ContactStore, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageFirestore:
		log.Info("using firestore storage", "project", cfg.GCPProjectID)
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, nil, err
		}
		// 1 store, implements both ports
		return fs, fs, func() { _ = fs.Close() }, nil

	case config.StorageSQLite:
		log.Info("using sqlite storage", "path", cfg.SQLitePath)
		db, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, db, func() { _ = db.Close() }, nil

	default:
		log.Info("using in-memory storage")
		return memstore.NewNoteStore(), memstore.NewContactStore(), func() {}, nil
	}
}

// newLLM returns a nil client when the provider has no credentials; /summary
// then answers 500 instead of the process refusing to start.
func newLLM(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.LLMClient, error) {
	switch cfg.LLMProvider {
	case config.ProviderMock:
		log.Info("using mock llm")
		return llm.NewMockLLM(), nil

	case config.ProviderVertex:
		log.Info("using vertex llm", "model", cfg.VertexModel, "location", cfg.GCPLocation)
		return llm.NewVertexClient(ctx, llm.VertexOptions{
			ProjectID: cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			Model:     cfg.VertexModel,
		})

	default:
		c, err := llm.NewOpenAIClient(llm.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.SummaryModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if errors.Is(err, domain.ErrNotConfigured) {
			log.Warn("openai key missing, summaries disabled")
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		log.Info("using openai llm", "model", c.Model())
		return c, nil
	}
}

func newTranscriber(cfg *config.Config, log *slog.Logger) domain.Transcriber {
	if cfg.LLMProvider == config.ProviderMock {
		return speech.NewMockTranscriber()
	}
	w, err := speech.NewWhisperClient(speech.WhisperOptions{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.TranscribeModel,
	})
	if err != nil {
		log.Warn("speech-to-text disabled", "error", err)
		return nil
	}
	return w
}
