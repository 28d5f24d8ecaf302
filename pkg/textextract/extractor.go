// Package textextract pulls plain text out of CV documents with docconv.
package textextract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
)

var extractable = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".rtf":  true,
	".odt":  true,
	".txt":  true,
}

// Extractor converts documents to text.
type Extractor struct {
	// Readability enables docconv's HTML readability pass.
	Readability bool
}

func New() *Extractor {
	return &Extractor{}
}

// CanExtract reports whether the file type is supported.
func (e *Extractor) CanExtract(fileName string) bool {
	return extractable[strings.ToLower(filepath.Ext(fileName))]
}

// Extract returns the normalised text of data. The context bounds nothing
// inside docconv and is only checked up front.
func (e *Extractor) Extract(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !extractable[ext] {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}

	if ext == ".txt" {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("text file %s is not valid UTF-8", fileName)
		}
		return Clean(string(data)), nil
	}

	res, err := docconv.Convert(bytes.NewReader(data), docconv.MimeTypeByExtension(fileName), e.Readability)
	if err != nil {
		return "", fmt.Errorf("failed to parse document: %w", err)
	}
	return Clean(res.Body), nil
}

// Clean collapses runs of blank lines and trims trailing spaces.
func Clean(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t ")
		if strings.TrimSpace(l) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
