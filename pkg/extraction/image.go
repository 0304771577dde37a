package extraction

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// Register stdlib decoders for dimension probing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// OCRBackend recognizes text in an image. The pipeline does not bundle an
// OCR engine; the surrounding application plugs one in. A nil backend
// yields empty text, which is a valid completed extraction.
type OCRBackend interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// ImageExtractor handles the image family. Text comes from the OCR
// backend when one is configured; metadata covers dimensions and format.
type ImageExtractor struct {
	ocr OCRBackend
}

func NewImageExtractor(ocr OCRBackend) *ImageExtractor {
	return &ImageExtractor{ocr: ocr}
}

func (e *ImageExtractor) Name() string {
	return "ImageExtractor"
}

func (e *ImageExtractor) Family() Family {
	return FamilyImage
}

func (e *ImageExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if e.ocr == nil {
		return "", nil
	}
	text, err := e.ocr.Recognize(ctx, path)
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

func (e *ImageExtractor) ExtractImages(ctx context.Context, path string) ([]ImageRef, error) {
	// The file itself is the image.
	return []ImageRef{{
		Path:   path,
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}}, nil
}

func (e *ImageExtractor) ExtractMetadata(ctx context.Context, path string) (map[string]string, error) {
	metadata := baseFileMetadata(path)
	metadata["type"] = "Image"

	file, err := os.Open(path)
	if err != nil {
		return metadata, err
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		// Formats without a registered decoder (webp) still report the
		// filesystem metadata.
		return metadata, nil
	}

	metadata["format"] = format
	metadata["width"] = fmt.Sprintf("%d", cfg.Width)
	metadata["height"] = fmt.Sprintf("%d", cfg.Height)

	return metadata, nil
}

var _ Extractor = (*ImageExtractor)(nil)
