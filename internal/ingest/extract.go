package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/walker"
)

// ExtractText returns the plain text of a document and its detected
// format. Formats are chosen by file extension.
func ExtractText(name string, data []byte) (text, format string, err error) {
	format = walker.DetectFormat(name)
	switch format {
	case walker.FormatPDF:
		text, err = extractPDF(data)
	case walker.FormatDOCX:
		text, err = extractDOCX(data)
	case walker.FormatHTML:
		text, err = extractHTML(data)
	case walker.FormatText, walker.FormatMarkdown:
		text = string(data)
	default:
		return "", "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, name)
	}
	if err != nil {
		return "", format, err
	}
	return normalizeText(text), format, nil
}

// extractPDF reads the text layer. Scanned PDFs without one yield "".
func extractPDF(data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: malformed document: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf: %w", err)
	}
	return string(b), nil
}

// documentXML is the subset of word/document.xml that carries text.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
	Tabs []struct{}    `xml:"tab"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("docx: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("docx: %w", err)
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("docx: %w", err)
		}
		var sb strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				sb.WriteString("\n")
			}
			for _, r := range para.Runs {
				for range r.Tabs {
					sb.WriteString("\t")
				}
				for _, t := range r.Text {
					sb.WriteString(t.Content)
				}
			}
		}
		return sb.String(), nil
	}
	return "", fmt.Errorf("docx: word/document.xml not found")
}

const htmlBlocks = "h1,h2,h3,h4,h5,h6,p,li,td,th,pre,blockquote,dt,dd"

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("html: %w", err)
	}
	doc.Find("script,style,noscript,template").Remove()

	var parts []string
	doc.Find(htmlBlocks).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are visited on their own.
		if s.Find(htmlBlocks).Length() > 0 {
			return
		}
		if t := collapseSpaces(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return collapseSpaces(doc.Find("body").Text()), nil
	}
	return strings.Join(parts, "\n"), nil
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeText unifies line endings and trims trailing space per line.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
