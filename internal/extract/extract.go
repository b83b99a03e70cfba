// Package extract pulls raw text out of uploaded files. PDF and DOCX get
// dedicated handling; everything else is read as plain UTF-8 text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Document is one extracted text block with its provenance label.
type Document struct {
	Text   string
	Source string
}

// FromFile extracts text from the file at path, dispatching on extension.
// The returned documents carry the base file name as their source label.
func FromFile(path string) ([]Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return fromPDF(path)
	case ".docx":
		return fromDOCX(path)
	default:
		return fromPlainText(path)
	}
}

func fromPlainText(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text", filepath.Base(path))
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}

	return []Document{{Text: text, Source: filepath.Base(path)}}, nil
}

func fromPDF(path string) ([]Document, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("reading pdf text from %s: %w", filepath.Base(path), err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return nil, fmt.Errorf("buffering pdf text from %s: %w", filepath.Base(path), err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return nil, fmt.Errorf("no text extracted from %s", filepath.Base(path))
	}

	return []Document{{Text: text, Source: filepath.Base(path)}}, nil
}
