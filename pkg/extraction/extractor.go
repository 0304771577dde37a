package extraction

import "context"

// Extractor is the capability contract shared by all format families:
// every extractor produces text, image references and metadata from a
// file path. Each call may fail independently; text is the load-bearing
// output and decides the overall attempt status.
type Extractor interface {
	// Name returns the extractor name for logging.
	Name() string

	// Family returns the format family this extractor serves.
	Family() Family

	// ExtractText returns the plain-text content of the file.
	ExtractText(ctx context.Context, path string) (string, error)

	// ExtractImages returns references to images embedded in the file.
	ExtractImages(ctx context.Context, path string) ([]ImageRef, error)

	// ExtractMetadata returns format-specific metadata (page count,
	// dimensions, duration and the like).
	ExtractMetadata(ctx context.Context, path string) (map[string]string, error)
}

// ExtractorSet holds one extractor per family.
type ExtractorSet struct {
	extractors map[Family]Extractor
}

// NewExtractorSet builds the default set: document, word-processor,
// image and media extractors. Optional OCR and transcription backends
// plug into the image and media extractors.
func NewExtractorSet(opts ...SetOption) *ExtractorSet {
	options := setOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s := &ExtractorSet{extractors: make(map[Family]Extractor)}
	s.register(NewDocumentExtractor())
	s.register(NewWordExtractor())
	s.register(NewImageExtractor(options.ocr))
	s.register(NewMediaExtractor(options.transcriber))
	return s
}

func (s *ExtractorSet) register(e Extractor) {
	s.extractors[e.Family()] = e
}

// ForFamily returns the extractor for a family.
func (s *ExtractorSet) ForFamily(family Family) (Extractor, bool) {
	e, ok := s.extractors[family]
	return e, ok
}

type setOptions struct {
	ocr         OCRBackend
	transcriber Transcriber
}

// SetOption customizes an ExtractorSet.
type SetOption func(*setOptions)

// WithOCRBackend plugs an OCR backend into the image extractor.
func WithOCRBackend(ocr OCRBackend) SetOption {
	return func(o *setOptions) { o.ocr = ocr }
}

// WithTranscriber plugs a transcription backend into the media extractor.
func WithTranscriber(t Transcriber) SetOption {
	return func(o *setOptions) { o.transcriber = t }
}
