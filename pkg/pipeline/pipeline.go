// Package pipeline connects the job runner to the extraction and
// analysis services: it owns the per-kind job handlers and the
// sequencing rule that an analysis job is only enqueued once its file's
// extraction has reached a terminal status.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/analysis"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/extraction"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/jobs"
)

// Persistence is the external collaborator that stores pipeline
// outputs. The pipeline never persists entities itself.
type Persistence interface {
	SaveProcessedFile(ctx context.Context, pf *extraction.ProcessedFile) error
	GetProcessedFile(ctx context.Context, fileID uuid.UUID) (*extraction.ProcessedFile, error)
	SaveStudyGuide(ctx context.Context, userID string, guide *analysis.StudyGuide) error
	SaveQuiz(ctx context.Context, userID string, quiz *analysis.Quiz) error
	SaveAnalysis(ctx context.Context, result *analysis.AnalysisResult) error
}

// Notifier delivers user-facing notifications.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

// LogNotifier writes notifications to the log. It is the default when
// no real delivery channel is wired.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, userID, message string) error {
	slog.Info("Notification", "user_id", userID, "message", message)
	return nil
}

// Pipeline wires extractor, analyzer, persistence and notifier into the
// job runner.
type Pipeline struct {
	extractor   *extraction.Service
	analyzer    *analysis.Service
	runner      *jobs.Runner
	persistence Persistence
	notifier    Notifier
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithNotifier replaces the log-backed default notifier.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// New builds a pipeline and registers its handlers on the runner.
func New(extractor *extraction.Service, analyzer *analysis.Service, runner *jobs.Runner, persistence Persistence, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   extractor,
		analyzer:    analyzer,
		runner:      runner,
		persistence: persistence,
		notifier:    LogNotifier{},
	}
	for _, opt := range opts {
		opt(p)
	}

	runner.RegisterHandler(jobs.KindContentExtraction, p.handleExtraction)
	runner.RegisterHandler(jobs.KindAIAnalysis, p.handleAnalysis)
	runner.RegisterHandler(jobs.KindNotification, p.handleNotification)
	return p
}

// SubmitFile enqueues a content extraction job for an uploaded file.
// Fire-and-forget; the result lands in persistence.
func (p *Pipeline) SubmitFile(file *extraction.UploadedFile) error {
	payload, err := jobs.EncodePayload(jobs.ExtractionPayload{
		FileID:       file.ID.String(),
		UserID:       file.UserID,
		FileName:     file.Name,
		DeclaredType: file.DeclaredType,
		StorageKey:   file.StorageKey,
		Size:         file.Size,
	})
	if err != nil {
		return err
	}
	return p.runner.Enqueue(jobs.NewJob(jobs.KindContentExtraction, payload))
}

// SubmitAnalysis enqueues an analysis job for an already-extracted file.
func (p *Pipeline) SubmitAnalysis(payload jobs.AnalysisPayload) error {
	encoded, err := jobs.EncodePayload(payload)
	if err != nil {
		return err
	}
	return p.runner.Enqueue(jobs.NewJob(jobs.KindAIAnalysis, encoded))
}

func (p *Pipeline) handleExtraction(ctx context.Context, job *jobs.Job) error {
	var payload jobs.ExtractionPayload
	if err := jobs.DecodePayload(job.Payload, &payload); err != nil {
		return err
	}
	fileID, err := uuid.Parse(payload.FileID)
	if err != nil {
		return fmt.Errorf("invalid file id %q: %w", payload.FileID, err)
	}

	file := &extraction.UploadedFile{
		ID:           fileID,
		Name:         payload.FileName,
		DeclaredType: payload.DeclaredType,
		StorageKey:   payload.StorageKey,
		Size:         payload.Size,
		UserID:       payload.UserID,
	}

	// ProcessFile never fails: unsupported formats and extractor errors
	// come back as typed statuses on the record.
	processed := p.extractor.ProcessFile(ctx, file)
	if err := p.persistence.SaveProcessedFile(ctx, processed); err != nil {
		return fmt.Errorf("failed to persist processed file: %w", err)
	}

	slog.Info("File processed",
		"file_id", fileID,
		"status", processed.Status,
		"text_len", len(processed.Text),
		"images", len(processed.Images))

	// Extraction is terminal for this file now, so the dependent
	// analysis job may be enqueued. Only completed extractions have
	// material worth analyzing.
	if processed.Status == extraction.StatusCompleted {
		return p.SubmitAnalysis(jobs.AnalysisPayload{
			FileID:    payload.FileID,
			UserID:    payload.UserID,
			Operation: analysis.OpAnalysis,
		})
	}
	return nil
}

func (p *Pipeline) handleAnalysis(ctx context.Context, job *jobs.Job) error {
	var payload jobs.AnalysisPayload
	if err := jobs.DecodePayload(job.Payload, &payload); err != nil {
		return err
	}
	fileID, err := uuid.Parse(payload.FileID)
	if err != nil {
		return fmt.Errorf("invalid file id %q: %w", payload.FileID, err)
	}

	processed, err := p.persistence.GetProcessedFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to load processed file: %w", err)
	}
	if processed.Status != extraction.StatusCompleted {
		// Nothing to analyze; not an error and not worth a retry.
		slog.Warn("Skipping analysis of non-completed extraction",
			"file_id", fileID, "status", processed.Status)
		return nil
	}

	in := analysis.GenerateInput{
		UserID:      payload.UserID,
		Prompt:      payload.Prompt,
		Subject:     payload.Subject,
		Level:       payload.Level,
		SourceTexts: []string{processed.Text},
	}

	switch payload.Operation {
	case analysis.OpStudyGuide:
		guide, err := p.analyzer.GenerateStudyGuide(ctx, in)
		if err != nil {
			return err
		}
		guide.SourceFileIDs = []string{payload.FileID}
		return p.persistence.SaveStudyGuide(ctx, payload.UserID, guide)

	case analysis.OpQuiz:
		quiz, err := p.analyzer.GenerateQuiz(ctx, in)
		if err != nil {
			return err
		}
		quiz.SourceFileIDs = []string{payload.FileID}
		return p.persistence.SaveQuiz(ctx, payload.UserID, quiz)

	case analysis.OpAnalysis, "":
		result, err := p.analyzer.GenerateFileAnalysis(ctx, in)
		if err != nil {
			return err
		}
		result.FileID = payload.FileID
		return p.persistence.SaveAnalysis(ctx, result)

	default:
		return fmt.Errorf("unknown analysis operation: %s", payload.Operation)
	}
}

func (p *Pipeline) handleNotification(ctx context.Context, job *jobs.Job) error {
	var payload jobs.NotificationPayload
	if err := jobs.DecodePayload(job.Payload, &payload); err != nil {
		return err
	}
	return p.notifier.Notify(ctx, payload.UserID, payload.Message)
}

// MemoryPersistence is an in-process Persistence used by the CLI and
// tests when no database is wired.
type MemoryPersistence struct {
	mu       sync.RWMutex
	files    map[uuid.UUID]*extraction.ProcessedFile
	guides   []*analysis.StudyGuide
	quizzes  []*analysis.Quiz
	analyses []*analysis.AnalysisResult
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{files: make(map[uuid.UUID]*extraction.ProcessedFile)}
}

func (m *MemoryPersistence) SaveProcessedFile(_ context.Context, pf *extraction.ProcessedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[pf.FileID] = pf
	return nil
}

func (m *MemoryPersistence) GetProcessedFile(_ context.Context, fileID uuid.UUID) (*extraction.ProcessedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pf, ok := m.files[fileID]
	if !ok {
		return nil, fmt.Errorf("no processed file for %s", fileID)
	}
	return pf, nil
}

func (m *MemoryPersistence) SaveStudyGuide(_ context.Context, _ string, guide *analysis.StudyGuide) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guides = append(m.guides, guide)
	return nil
}

func (m *MemoryPersistence) SaveQuiz(_ context.Context, _ string, quiz *analysis.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes = append(m.quizzes, quiz)
	return nil
}

func (m *MemoryPersistence) SaveAnalysis(_ context.Context, result *analysis.AnalysisResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses = append(m.analyses, result)
	return nil
}

// Guides returns the stored study guides.
func (m *MemoryPersistence) Guides() []*analysis.StudyGuide {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*analysis.StudyGuide(nil), m.guides...)
}

// Quizzes returns the stored quizzes.
func (m *MemoryPersistence) Quizzes() []*analysis.Quiz {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*analysis.Quiz(nil), m.quizzes...)
}

// Analyses returns the stored analysis results.
func (m *MemoryPersistence) Analyses() []*analysis.AnalysisResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*analysis.AnalysisResult(nil), m.analyses...)
}
