package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// WordExtractor handles the word-processor family (DOCX).
type WordExtractor struct{}

func NewWordExtractor() *WordExtractor {
	return &WordExtractor{}
}

func (e *WordExtractor) Name() string {
	return "WordExtractor"
}

func (e *WordExtractor) Family() Family {
	return FamilyWord
}

func (e *WordExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse Word document: %w", err)
	}
	defer doc.Close()

	return doc.Editable().GetContent(), nil
}

func (e *WordExtractor) ExtractImages(ctx context.Context, path string) ([]ImageRef, error) {
	return listArchiveMedia(path, "word/media/")
}

func (e *WordExtractor) ExtractMetadata(ctx context.Context, path string) (map[string]string, error) {
	metadata := baseFileMetadata(path)
	metadata["type"] = "Word Document"

	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return metadata, fmt.Errorf("failed to parse Word document: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	metadata["paragraphs"] = fmt.Sprintf("%d", len(strings.Split(content, "\n\n")))

	return metadata, nil
}

var _ Extractor = (*WordExtractor)(nil)
