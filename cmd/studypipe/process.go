package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/extraction"
)

// ProcessCmd runs extraction on a local file and prints the result.
type ProcessCmd struct {
	Path string `arg:"" help:"File to process." type:"path"`
	Type string `help:"Override the declared file type (defaults to the extension)."`
}

func (c *ProcessCmd) Run(cfg *config.Config) error {
	file, err := uploadedFileFromPath(c.Path, c.Type)
	if err != nil {
		return err
	}

	svc := extraction.NewService(cfg.Extraction, extraction.NewExtractorSet())
	processed := svc.ProcessFile(context.Background(), file)

	out, err := json.MarshalIndent(processed, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// uploadedFileFromPath describes a local file as an upload record. The
// storage key is the path itself; the default localizer resolves it.
func uploadedFileFromPath(path, declaredType string) (*extraction.UploadedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat file: %w", err)
	}
	if declaredType == "" {
		declaredType = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	return &extraction.UploadedFile{
		ID:           uuid.New(),
		Name:         filepath.Base(path),
		DeclaredType: declaredType,
		StorageKey:   path,
		Size:         info.Size(),
		UserID:       "cli",
		CreatedAt:    time.Now(),
	}, nil
}
