package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/llms"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/observability"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/utils"
)

// Operation names used for cache keys and metrics.
const (
	OpStudyGuide = "study_guide"
	OpQuiz       = "quiz"
	OpAnalysis   = "file_analysis"
	OpChat       = "chat"
)

// GenerateInput carries everything a generation call needs: the user's
// request, optional subject/level framing, extracted text of supporting
// files, summaries of existing guides, and prior conversation turns.
type GenerateInput struct {
	UserID         string
	Prompt         string
	Subject        string
	Level          string
	SourceTexts    []string
	GuideSummaries []string
	History        []llms.Message
}

// Service is the cached, end-to-end analysis entry point: it validates
// the call contract, assembles the prompt, invokes the provider through
// the cache, and parses the reply into a typed result. Environmental
// failures (provider errors, timeouts) come back as errors so the job
// layer can retry; malformed model output never does.
type Service struct {
	provider llms.Provider
	cache    *Cache
	tokens   *utils.TokenCounter
	timeout  time.Duration
	budget   int
	caching  bool
}

// NewService wires a provider with cache and extraction settings.
func NewService(provider llms.Provider, cfg *config.Config) *Service {
	tokens, err := utils.NewTokenCounter(provider.ModelName())
	if err != nil {
		slog.Debug("No tokenizer for model, using character estimate", "model", provider.ModelName())
		tokens = nil
	}
	llmCfg := cfg.LLMs[cfg.DefaultLLM]
	timeout := 2 * time.Minute
	if llmCfg != nil && llmCfg.Timeout.Duration() > 0 {
		timeout = llmCfg.Timeout.Duration()
	}
	return &Service{
		provider: provider,
		cache:    NewCache(cfg.Cache),
		tokens:   tokens,
		timeout:  timeout,
		budget:   cfg.Extraction.TokenBudget,
		caching:  config.BoolValue(cfg.Cache.Enabled, true),
	}
}

// GenerateStudyGuide produces a StudyGuide for the input. An empty
// prompt or user id is a caller bug and returns an error immediately.
func (s *Service) GenerateStudyGuide(ctx context.Context, in GenerateInput) (*StudyGuide, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	value, err := s.cached(OpStudyGuide, in, func() (any, error) {
		raw, err := s.invoke(ctx, buildSystemPrompt(in.Subject, in.Level), s.buildStudyGuidePrompt(in), in.History)
		if err != nil {
			return nil, err
		}
		return ParseStudyGuide(raw), nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*StudyGuide), nil
}

// GenerateQuiz produces a Quiz for the input.
func (s *Service) GenerateQuiz(ctx context.Context, in GenerateInput) (*Quiz, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	value, err := s.cached(OpQuiz, in, func() (any, error) {
		raw, err := s.invoke(ctx, buildSystemPrompt(in.Subject, in.Level), s.buildQuizPrompt(in), in.History)
		if err != nil {
			return nil, err
		}
		return ParseQuiz(raw), nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*Quiz), nil
}

// GenerateFileAnalysis produces an AnalysisResult for the source texts.
// The prompt is optional here; the material itself is the subject.
func (s *Service) GenerateFileAnalysis(ctx context.Context, in GenerateInput) (*AnalysisResult, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, fmt.Errorf("user id must not be empty")
	}
	if len(in.SourceTexts) == 0 {
		return nil, fmt.Errorf("file analysis requires source material")
	}

	value, err := s.cached(OpAnalysis, in, func() (any, error) {
		raw, err := s.invoke(ctx, buildSystemPrompt(in.Subject, in.Level), s.buildAnalysisPrompt(in), nil)
		if err != nil {
			return nil, err
		}
		result := ParseFileAnalysis(raw)
		result.UserID = in.UserID
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*AnalysisResult), nil
}

// GenerateConversationalResponse returns the model's raw reply to a chat
// turn grounded in the user's material. No parsing; chat output is
// displayed as-is.
func (s *Service) GenerateConversationalResponse(ctx context.Context, in GenerateInput) (string, error) {
	if err := validateInput(in); err != nil {
		return "", err
	}

	value, err := s.cached(OpChat, in, func() (any, error) {
		return s.invoke(ctx, buildSystemPrompt(in.Subject, in.Level), s.buildChatPrompt(in), in.History)
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// Cache exposes the underlying cache, mainly for tests.
func (s *Service) Cache() *Cache {
	return s.cache
}

func validateInput(in GenerateInput) error {
	if strings.TrimSpace(in.Prompt) == "" {
		return fmt.Errorf("prompt must not be empty")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return fmt.Errorf("user id must not be empty")
	}
	return nil
}

// cached runs fn through the cache when caching is enabled. The key
// covers every input that can change the model's reply.
func (s *Service) cached(operation string, in GenerateInput, fn func() (any, error)) (any, error) {
	if !s.caching {
		return fn()
	}
	key := Signature(operation, s.signatureParts(in)...)
	return s.cache.Do(operation, key, fn)
}

func (s *Service) signatureParts(in GenerateInput) []string {
	parts := []string{in.UserID, in.Prompt, in.Subject, in.Level}
	parts = append(parts, in.SourceTexts...)
	parts = append(parts, in.GuideSummaries...)
	for _, msg := range in.History {
		parts = append(parts, string(msg.Role)+"\x00"+msg.Content)
	}
	return parts
}

// invoke performs one model call under the configured timeout. An
// unresponsive model must not hang a worker indefinitely.
func (s *Service) invoke(ctx context.Context, system, prompt string, history []llms.Message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages := make([]llms.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llms.Message{Role: llms.RoleUser, Content: prompt})

	start := time.Now()
	resp, err := s.provider.Generate(callCtx, llms.Request{System: system, Messages: messages})
	if err != nil {
		observability.RecordLLMCall(s.provider.Name(), time.Since(start), 0, 0, err)
		return "", fmt.Errorf("model call failed: %w", err)
	}
	observability.RecordLLMCall(s.provider.Name(), time.Since(start), resp.InputTokens, resp.OutputTokens, nil)

	slog.Debug("Model call completed",
		"provider", s.provider.Name(),
		"model", s.provider.ModelName(),
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"duration", time.Since(start))
	return resp.Text, nil
}
