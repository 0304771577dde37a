package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/analysis"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/extraction"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/jobs"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/llms"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/observability"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/pipeline"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/storage"
)

// WorkerCmd runs the background worker: it watches an inbox directory,
// ingests new files into storage, and drives the extraction and
// analysis jobs through the runner.
type WorkerCmd struct {
	Inbox       string `help:"Directory to watch for incoming files." default:"./inbox" type:"path"`
	MetricsPort int    `name:"metrics-port" help:"Serve Prometheus metrics on this port (0 = disabled)."`
}

func (c *WorkerCmd) Run(cfg *config.Config) error {
	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return err
	}

	var jobStore jobs.Store
	if cfg.JobStore.IsSQL() {
		jobStore, err = jobs.NewSQLStoreFromConfig(&cfg.JobStore)
		if err != nil {
			return err
		}
	} else {
		jobStore = jobs.NewMemoryStore()
	}
	defer jobStore.Close()

	providers, err := llms.NewRegistryFromConfig(cfg)
	if err != nil {
		return err
	}
	defer providers.Close()

	provider, err := providers.Provider(cfg.DefaultLLM)
	if err != nil {
		return err
	}

	extractor := extraction.NewService(cfg.Extraction,
		extraction.NewExtractorSet(),
		extraction.WithLocalizer(store.Localize))
	analyzer := analysis.NewService(provider, cfg)

	runner := jobs.NewRunner(cfg.Queue, jobStore)
	pipe := pipeline.New(extractor, analyzer, runner, pipeline.NewMemoryPersistence())
	runner.Start()

	// A durable job store may hold work buffered at the last shutdown.
	if _, err := runner.Resume(context.Background()); err != nil {
		slog.Warn("Failed to resume pending jobs", "error", err)
	}

	if c.MetricsPort > 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			addr := fmt.Sprintf(":%d", c.MetricsPort)
			slog.Info("Serving metrics", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	if err := os.MkdirAll(c.Inbox, 0o755); err != nil {
		return fmt.Errorf("failed to create inbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(c.Inbox); err != nil {
		return fmt.Errorf("failed to watch inbox: %w", err)
	}

	// Files already sitting in the inbox are picked up on startup.
	entries, err := os.ReadDir(c.Inbox)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			c.ingest(store, pipe, filepath.Join(c.Inbox, entry.Name()))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	slog.Info("Worker started", "inbox", c.Inbox, "workers", cfg.Queue.Workers)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Write follows Create for copied files; ingesting on Create
			// alone can read a half-written payload, so wait for the
			// final Write where possible and fall back to Create for
			// renames into the directory.
			if event.Op&(fsnotify.Create|fsnotify.Rename) != 0 {
				c.ingestSettled(store, pipe, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", "error", err)

		case sig := <-sigCh:
			slog.Info("Shutting down", "signal", sig)
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ShutdownTimeout.Duration())
			defer cancel()
			return runner.Stop(stopCtx)
		}
	}
}

// ingestSettled waits briefly for the file size to stop changing before
// ingesting, so partially copied files are not read mid-write.
func (c *WorkerCmd) ingestSettled(store storage.Store, pipe *pipeline.Pipeline, path string) {
	go func() {
		var lastSize int64 = -1
		for i := 0; i < 20; i++ {
			info, err := os.Stat(path)
			if err != nil {
				return
			}
			if info.IsDir() {
				return
			}
			if info.Size() == lastSize {
				break
			}
			lastSize = info.Size()
			time.Sleep(250 * time.Millisecond)
		}
		c.ingest(store, pipe, path)
	}()
}

// ingest uploads one inbox file into storage and submits it for
// extraction. The inbox copy is removed once the payload is safely in
// storage.
func (c *WorkerCmd) ingest(store storage.Store, pipe *pipeline.Pipeline, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("Failed to read inbox file", "path", path, "error", err)
		return
	}

	id := uuid.New()
	name := filepath.Base(path)
	key := id.String() + "/" + name

	if err := store.Upload(context.Background(), key, data, ""); err != nil {
		slog.Error("Failed to store inbox file", "path", path, "error", err)
		return
	}

	file := &extraction.UploadedFile{
		ID:           id,
		Name:         name,
		DeclaredType: strings.TrimPrefix(filepath.Ext(name), "."),
		StorageKey:   key,
		Size:         int64(len(data)),
		UserID:       "worker",
		CreatedAt:    time.Now(),
	}
	if err := pipe.SubmitFile(file); err != nil {
		slog.Error("Failed to enqueue extraction", "path", path, "error", err)
		return
	}

	if err := os.Remove(path); err != nil {
		slog.Warn("Failed to remove ingested inbox file", "path", path, "error", err)
	}
	slog.Info("File ingested", "file_id", id, "name", name, "size", file.Size)
}
