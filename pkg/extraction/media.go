package extraction

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Transcriber turns audio/video into a transcript and still frames. Like
// OCR, the engine itself lives outside the pipeline; a nil transcriber
// yields empty output.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
	Frames(ctx context.Context, path string) ([]ImageRef, error)
}

// MediaExtractor handles the audio/video family. It exposes the
// media-specific TranscribeAudio and ExtractFrames operations and
// satisfies the common extractor contract by delegating to them, so the
// orchestrator treats media files like any other format.
type MediaExtractor struct {
	transcriber Transcriber
}

func NewMediaExtractor(t Transcriber) *MediaExtractor {
	return &MediaExtractor{transcriber: t}
}

func (e *MediaExtractor) Name() string {
	return "MediaExtractor"
}

func (e *MediaExtractor) Family() Family {
	return FamilyMedia
}

// TranscribeAudio returns the transcript of the file's audio track.
func (e *MediaExtractor) TranscribeAudio(ctx context.Context, path string) (string, error) {
	if e.transcriber == nil {
		return "", nil
	}
	transcript, err := e.transcriber.Transcribe(ctx, path)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return transcript, nil
}

// ExtractFrames returns still frames sampled from a video file.
func (e *MediaExtractor) ExtractFrames(ctx context.Context, path string) ([]ImageRef, error) {
	if e.transcriber == nil {
		return []ImageRef{}, nil
	}
	frames, err := e.transcriber.Frames(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("frame extraction failed: %w", err)
	}
	return frames, nil
}

func (e *MediaExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	return e.TranscribeAudio(ctx, path)
}

func (e *MediaExtractor) ExtractImages(ctx context.Context, path string) ([]ImageRef, error) {
	return e.ExtractFrames(ctx, path)
}

func (e *MediaExtractor) ExtractMetadata(ctx context.Context, path string) (map[string]string, error) {
	metadata := baseFileMetadata(path)

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	metadata["format"] = ext
	switch ext {
	case "mp3", "wav", "m4a":
		metadata["type"] = "Audio"
	default:
		metadata["type"] = "Video"
	}

	return metadata, nil
}

var _ Extractor = (*MediaExtractor)(nil)
