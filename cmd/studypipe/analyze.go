package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/analysis"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/extraction"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/llms"
)

// AnalyzeCmd extracts a file and runs one analysis operation on the
// extracted text, printing the typed result as JSON.
type AnalyzeCmd struct {
	Path      string `arg:"" help:"File to analyze." type:"path"`
	Operation string `help:"Operation: study_guide, quiz, file_analysis or chat." default:"file_analysis"`
	Prompt    string `help:"Request to send alongside the material." default:"Summarize this material for studying."`
	Subject   string `help:"Subject context for the model."`
	Level     string `help:"Student level context for the model."`
	User      string `help:"User id attached to the request." default:"cli"`
}

func (c *AnalyzeCmd) Run(cfg *config.Config) error {
	file, err := uploadedFileFromPath(c.Path, "")
	if err != nil {
		return err
	}

	svc := extraction.NewService(cfg.Extraction, extraction.NewExtractorSet())
	processed := svc.ProcessFile(context.Background(), file)
	if processed.Status != extraction.StatusCompleted {
		return fmt.Errorf("extraction did not complete: status=%s error=%s", processed.Status, processed.ErrorMessage)
	}

	providers, err := llms.NewRegistryFromConfig(cfg)
	if err != nil {
		return err
	}
	defer providers.Close()

	provider, err := providers.Provider(cfg.DefaultLLM)
	if err != nil {
		return err
	}

	analyzer := analysis.NewService(provider, cfg)
	in := analysis.GenerateInput{
		UserID:      c.User,
		Prompt:      c.Prompt,
		Subject:     c.Subject,
		Level:       c.Level,
		SourceTexts: []string{processed.Text},
	}

	ctx := context.Background()
	var result any
	switch c.Operation {
	case analysis.OpStudyGuide:
		result, err = analyzer.GenerateStudyGuide(ctx, in)
	case analysis.OpQuiz:
		result, err = analyzer.GenerateQuiz(ctx, in)
	case analysis.OpAnalysis:
		result, err = analyzer.GenerateFileAnalysis(ctx, in)
	case analysis.OpChat:
		result, err = analyzer.GenerateConversationalResponse(ctx, in)
	default:
		return fmt.Errorf("unknown operation: %s", c.Operation)
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
