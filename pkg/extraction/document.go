package extraction

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// DocumentExtractor handles the document family: PDF, XLSX and plain
// text formats.
type DocumentExtractor struct{}

func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{}
}

func (e *DocumentExtractor) Name() string {
	return "DocumentExtractor"
}

func (e *DocumentExtractor) Family() Family {
	return FamilyDocument
}

func (e *DocumentExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDFText(ctx, path)
	case ".xlsx":
		return e.extractExcelText(ctx, path)
	default:
		return e.extractPlainText(path)
	}
}

func (e *DocumentExtractor) ExtractImages(ctx context.Context, path string) ([]ImageRef, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return listArchiveMedia(path, "xl/media/")
	default:
		// PDF image extraction is not supported by the reader in use;
		// plain text has no images.
		return []ImageRef{}, nil
	}
}

func (e *DocumentExtractor) ExtractMetadata(ctx context.Context, path string) (map[string]string, error) {
	metadata := baseFileMetadata(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		file, err := os.Open(path)
		if err != nil {
			return metadata, err
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil {
			return metadata, err
		}
		reader, err := pdf.NewReader(file, info.Size())
		if err != nil {
			return metadata, fmt.Errorf("failed to parse PDF: %w", err)
		}
		metadata["type"] = "PDF Document"
		metadata["pages"] = fmt.Sprintf("%d", reader.NumPage())

	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return metadata, fmt.Errorf("failed to parse spreadsheet: %w", err)
		}
		defer f.Close()
		metadata["type"] = "Excel Spreadsheet"
		metadata["sheets"] = fmt.Sprintf("%d", len(f.GetSheetList()))

	default:
		metadata["type"] = "Text Document"
	}

	return metadata, nil
}

func (e *DocumentExtractor) extractPDFText(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	var contentParts []string
	totalPages := reader.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			contentParts = append(contentParts, fmt.Sprintf("--- Page %d (extraction failed: %v) ---", pageNum, err))
			continue
		}

		if strings.TrimSpace(text) != "" {
			contentParts = append(contentParts, fmt.Sprintf("--- Page %d ---\n%s", pageNum, text))
		}
	}

	return strings.Join(contentParts, "\n\n"), nil
}

func (e *DocumentExtractor) extractExcelText(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse spreadsheet: %w", err)
	}
	defer f.Close()

	var contentParts []string
	const maxCells = 1000 // per sheet, to bound output on huge workbooks

	for _, sheetName := range f.GetSheetList() {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		var sheetText strings.Builder
		sheetText.WriteString(fmt.Sprintf("--- Sheet: %s ---\n", sheetName))

		rows, err := f.GetRows(sheetName)
		if err != nil {
			sheetText.WriteString(fmt.Sprintf("Error reading sheet: %v\n", err))
			continue
		}

		cellCount := 0
		for rowIndex, row := range rows {
			if cellCount >= maxCells {
				sheetText.WriteString("... (truncated)\n")
				break
			}
			for colIndex, cell := range row {
				if cellCount >= maxCells {
					break
				}
				if text := strings.TrimSpace(cell); text != "" {
					cellRef := fmt.Sprintf("%s%d", columnLetter(colIndex), rowIndex+1)
					sheetText.WriteString(fmt.Sprintf("%s: %s\n", cellRef, text))
					cellCount++
				}
			}
		}

		if text := strings.TrimSpace(sheetText.String()); text != "" {
			contentParts = append(contentParts, text)
		}
	}

	return strings.Join(contentParts, "\n\n"), nil
}

func (e *DocumentExtractor) extractPlainText(path string) (string, error) {
	contentBytes, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return cleanUTF8(string(contentBytes)), nil
}

// cleanUTF8 drops invalid byte sequences so downstream JSON encoding of
// extracted text never fails.
func cleanUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// columnLetter converts a 0-based column index to an Excel column letter
// (A, B, ..., Z, AA, AB, ...).
func columnLetter(index int) string {
	result := ""
	for {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return result
}

// listArchiveMedia lists embedded media entries of an OOXML archive
// (xl/media/ for spreadsheets, word/media/ for documents).
func listArchiveMedia(path string, prefix string) ([]ImageRef, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	refs := []ImageRef{}
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, prefix) && !f.FileInfo().IsDir() {
			refs = append(refs, ImageRef{
				Path:   f.Name,
				Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), "."),
			})
		}
	}
	return refs, nil
}

// baseFileMetadata collects filesystem-level metadata shared by all
// extractors.
func baseFileMetadata(path string) map[string]string {
	metadata := map[string]string{
		"title": filepath.Base(path),
	}
	if fileInfo, err := os.Stat(path); err == nil {
		metadata["file_size"] = fmt.Sprintf("%d", fileInfo.Size())
		metadata["file_modified"] = fileInfo.ModTime().Format(time.RFC3339)
	}
	return metadata
}

var _ Extractor = (*DocumentExtractor)(nil)
