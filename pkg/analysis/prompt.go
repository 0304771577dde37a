package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/utils"
)

// Prompt assembly for the three generation operations. Source material
// is truncated to the configured token budget before being embedded so
// an oversized upload cannot blow past the model's context window.

func buildSystemPrompt(subject, level string) string {
	var sb strings.Builder
	sb.WriteString("You are a study assistant helping a student learn from their own uploaded material.")
	if subject != "" {
		sb.WriteString(fmt.Sprintf(" The subject is %s.", subject))
	}
	if level != "" {
		sb.WriteString(fmt.Sprintf(" Pitch explanations at a %s level.", level))
	}
	return sb.String()
}

func (s *Service) buildStudyGuidePrompt(in GenerateInput) string {
	var sb strings.Builder
	sb.WriteString("Create a study guide from the material below.\n")
	sb.WriteString("Respond with a JSON object: {\"title\": string, \"content\": string, \"keyPoints\": [string], \"summary\": string}.\n\n")
	sb.WriteString("Request: ")
	sb.WriteString(in.Prompt)
	sb.WriteString("\n")
	s.writeSourceMaterial(&sb, in)
	return sb.String()
}

func (s *Service) buildQuizPrompt(in GenerateInput) string {
	var sb strings.Builder
	sb.WriteString("Create a multiple-choice quiz from the material below.\n")
	sb.WriteString("Respond with a JSON object: {\"title\": string, \"questions\": [{\"question\": string, \"options\": [string], \"correctIndex\": number, \"explanation\": string}]}.\n")
	sb.WriteString("Every question must have 2 to 5 options and exactly one correct option.\n\n")
	sb.WriteString("Request: ")
	sb.WriteString(in.Prompt)
	sb.WriteString("\n")
	s.writeSourceMaterial(&sb, in)
	return sb.String()
}

func (s *Service) buildAnalysisPrompt(in GenerateInput) string {
	var sb strings.Builder
	sb.WriteString("Analyze the study material below.\n")
	sb.WriteString("Respond with a JSON object: {\"subject\": string, \"topics\": [string], \"summary\": string, \"difficulty\": string, \"suggestions\": [string]}.\n\n")
	s.writeSourceMaterial(&sb, in)
	return sb.String()
}

func (s *Service) buildChatPrompt(in GenerateInput) string {
	var sb strings.Builder
	sb.WriteString(in.Prompt)
	sb.WriteString("\n")
	s.writeSourceMaterial(&sb, in)
	return sb.String()
}

func (s *Service) writeSourceMaterial(sb *strings.Builder, in GenerateInput) {
	if len(in.SourceTexts) > 0 {
		sb.WriteString("\nSource material:\n")
		combined := strings.Join(in.SourceTexts, "\n---\n")
		sb.WriteString(s.truncate(combined))
		sb.WriteString("\n")
	}
	if len(in.GuideSummaries) > 0 {
		sb.WriteString("\nExisting study guides:\n")
		for _, summary := range in.GuideSummaries {
			sb.WriteString("- ")
			sb.WriteString(summary)
			sb.WriteString("\n")
		}
	}
}

// truncate caps text at the token budget, preferring an exact tokenizer
// count and falling back to a character estimate when no tokenizer is
// available for the model.
func (s *Service) truncate(text string) string {
	if s.budget <= 0 {
		return text
	}
	if s.tokens != nil {
		return s.tokens.Truncate(text, s.budget)
	}
	if utils.EstimateTokens(text) <= s.budget {
		return text
	}
	// Cut on a rune boundary so the prompt stays valid UTF-8.
	cut := s.budget * 4
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
