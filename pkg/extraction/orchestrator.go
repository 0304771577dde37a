package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
)

// LocalizeFunc resolves a storage key to a local file path, returning a
// cleanup function for any temporary copy. The default treats the key as
// a path on the local filesystem.
type LocalizeFunc func(ctx context.Context, key string) (string, func(), error)

func localPath(_ context.Context, key string) (string, func(), error) {
	return key, func() {}, nil
}

// Service orchestrates a single extraction attempt: route the declared
// type, run the extractor calls, classify the outcome. ProcessFile never
// panics or returns a Go error; every outcome is data on the
// ProcessedFile so a bad file cannot crash a worker.
type Service struct {
	cfg      config.ExtractionConfig
	set      *ExtractorSet
	localize LocalizeFunc
}

// ServiceOption customizes the orchestrator.
type ServiceOption func(*Service)

// WithLocalizer sets how storage keys are resolved to local paths.
func WithLocalizer(fn LocalizeFunc) ServiceOption {
	return func(s *Service) { s.localize = fn }
}

func NewService(cfg config.ExtractionConfig, set *ExtractorSet, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:      cfg,
		set:      set,
		localize: localPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessFile runs one extraction attempt. Classification is idempotent:
// the same file always routes the same way and reaches the same status
// (modulo non-determinism inside an OCR or transcription backend).
func (s *Service) ProcessFile(ctx context.Context, file *UploadedFile) *ProcessedFile {
	result := &ProcessedFile{
		FileID:      file.ID,
		Images:      []ImageRef{},
		Metadata:    map[string]string{},
		ProcessedAt: time.Now(),
	}

	family, ok := Route(file.DeclaredType)
	if !ok {
		slog.Debug("Unsupported file type", "file_id", file.ID, "declared_type", file.DeclaredType)
		result.Status = StatusUnsupported
		return result
	}

	extractor, ok := s.set.ForFamily(family)
	if !ok {
		result.Status = StatusUnsupported
		return result
	}

	if s.cfg.MaxFileSize > 0 && file.Size > s.cfg.MaxFileSize {
		result.Status = StatusError
		result.ErrorMessage = fmt.Sprintf("file size %d exceeds limit %d", file.Size, s.cfg.MaxFileSize)
		return result
	}

	path, cleanup, err := s.localize(ctx, file.StorageKey)
	if err != nil {
		result.Status = StatusError
		result.ErrorMessage = fmt.Sprintf("failed to localize file: %v", err)
		return result
	}
	defer cleanup()

	// Text is the load-bearing output: if it fails the whole attempt is
	// an error and secondary outputs stay empty.
	text, err := extractor.ExtractText(ctx, path)
	if err != nil {
		slog.Warn("Text extraction failed",
			"file_id", file.ID,
			"extractor", extractor.Name(),
			"error", err)
		result.Status = StatusError
		result.ErrorMessage = err.Error()
		return result
	}

	result.Text = text
	result.Status = StatusCompleted

	// Secondary outputs may fail independently; a failure there must not
	// void the text already gathered.
	var (
		images    []ImageRef
		imagesErr error
		metadata  map[string]string
		metaErr   error
	)

	var g errgroup.Group
	g.Go(func() error {
		images, imagesErr = extractor.ExtractImages(ctx, path)
		return nil
	})
	g.Go(func() error {
		metadata, metaErr = extractor.ExtractMetadata(ctx, path)
		return nil
	})
	_ = g.Wait()

	if imagesErr != nil {
		slog.Warn("Image extraction failed",
			"file_id", file.ID,
			"extractor", extractor.Name(),
			"error", imagesErr)
	} else if images != nil {
		result.Images = images
	}

	if metaErr != nil {
		slog.Warn("Metadata extraction failed",
			"file_id", file.ID,
			"extractor", extractor.Name(),
			"error", metaErr)
	}
	if metadata != nil {
		result.Metadata = metadata
	}

	return result
}
