package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/voicenote/internal/domain"
	"github.com/PabloGalante/voicenote/internal/observability"
)

// LoadPromptFile reads a YAML prompt file:
//
//	system: You are ...
//	user: |
//	  ... {{transcript}} ...
//
// Fields left empty are taken from fallback.
func LoadPromptFile(path string, fallback domain.PromptTemplate) (domain.PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fallback, fmt.Errorf("read prompt file: %w", err)
	}

	var tpl domain.PromptTemplate
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return fallback, fmt.Errorf("parse prompt file %s: %w", path, err)
	}
	if strings.TrimSpace(tpl.System) == "" {
		tpl.System = fallback.System
	}
	if strings.TrimSpace(tpl.User) == "" {
		tpl.User = fallback.User
	}
	return tpl, nil
}

// PromptWatcher serves the summary prompt from a YAML file and reloads it when the file changes.
// A broken edit keeps the last good prompt.
type PromptWatcher struct {
	path     string
	fallback domain.PromptTemplate

	mu      sync.RWMutex
	current domain.PromptTemplate
}

// NewPromptWatcher loads path once. The file must exist and parse.
func NewPromptWatcher(path string, fallback domain.PromptTemplate) (*PromptWatcher, error) {
	tpl, err := LoadPromptFile(path, fallback)
	if err != nil {
		return nil, err
	}
	return &PromptWatcher{path: path, fallback: fallback, current: tpl}, nil
}

// SummaryPrompt implements domain.PromptSource.
func (w *PromptWatcher) SummaryPrompt() domain.PromptTemplate {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Watch starts watching the prompt file until ctx is done.
// The parent directory is watched so editors that replace the file are handled.
func (w *PromptWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	log := observability.LoggerFromContext(ctx).With("prompt_file", w.path)
	target := filepath.Clean(w.path)

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch prompt dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					w.reload(log)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("prompt watcher error", "error", err)
			}
		}
	}()

	return nil
}

func (w *PromptWatcher) reload(log *slog.Logger) {
	tpl, err := LoadPromptFile(w.path, w.fallback)
	if err != nil {
		log.Warn("prompt reload failed, keeping previous prompt", "error", err)
		return
	}
	w.mu.Lock()
	w.current = tpl
	w.mu.Unlock()
	log.Info("prompt reloaded")
}
