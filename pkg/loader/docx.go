package loader

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chartdexhq/chartdex/pkg/document"
)

// DocxLoader extracts text from Word documents by walking the
// word/document.xml entry of the zip archive.
type DocxLoader struct{}

var _ Loader = DocxLoader{}

// Load extracts all paragraph text from the document, one line per
// paragraph.
func (DocxLoader) Load(_ context.Context, path string) ([]document.Document, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s as word archive: %w", path, err)
	}
	defer reader.Close()

	text, err := extractDocumentXML(&reader.Reader)
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", path, err)
	}

	return []document.Document{{
		Source: filepath.Base(path),
		Text:   text,
	}}, nil
}

// documentXML mirrors the parts of word/document.xml we read: the body
// is a list of paragraphs, each holding runs of text elements.
type documentXML struct {
	Body struct {
		Paragraphs []paragraphXML `xml:"p"`
	} `xml:"body"`
}

type paragraphXML struct {
	Runs []runXML `xml:"r"`
}

type runXML struct {
	Text []textXML `xml:"t"`
}

type textXML struct {
	Content string `xml:",chardata"`
}

func extractDocumentXML(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", err
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", err
		}

		var b strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				b.WriteString("\n")
			}
			for _, run := range para.Runs {
				for _, text := range run.Text {
					b.WriteString(text.Content)
				}
			}
		}

		return strings.TrimSpace(b.String()), nil
	}

	return "", fmt.Errorf("word/document.xml not found in archive")
}
