package llms

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
)

// GeminiProvider calls the Gemini API through the official genai SDK.
type GeminiProvider struct {
	config *config.LLMConfig
	client *genai.Client
}

// NewGeminiProvider creates a Gemini adapter from configuration.
func NewGeminiProvider(cfg *config.LLMConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Gemini")
	}

	// Constructors shouldn't require a context; per-call contexts apply
	// to Generate.
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		config: cfg,
		client: client,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) ModelName() string {
	return p.config.Model
}

func (p *GeminiProvider) Close() error {
	return nil
}

// Generate sends the conversation to Gemini and returns the reply text.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var contents []*genai.Content
	for _, msg := range req.Messages {
		role := genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	genCfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if p.config.Temperature != nil {
		temp := float32(*p.config.Temperature)
		genCfg.Temperature = &temp
	}
	if p.config.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(p.config.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	out := &Response{}
	if content := resp.Candidates[0].Content; content != nil {
		for _, part := range content.Parts {
			if part.Text != "" {
				out.Text += part.Text
			}
		}
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return out, nil
}

var _ Provider = (*GeminiProvider)(nil)
