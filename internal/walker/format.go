package walker

import (
	"path/filepath"
	"sort"
	"strings"
)

// Document formats with a text extractor.
const (
	FormatPDF      = "pdf"
	FormatDOCX     = "docx"
	FormatHTML     = "html"
	FormatText     = "txt"
	FormatMarkdown = "md"
)

var extensionFormats = map[string]string{
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".txt":      FormatText,
	".text":     FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
}

// DetectFormat returns the document format for a file name, or "" when
// the extension is not supported.
func DetectFormat(filename string) string {
	return extensionFormats[strings.ToLower(filepath.Ext(filename))]
}

// IsSupported reports whether filename has an extractable format.
func IsSupported(filename string) bool {
	return DetectFormat(filename) != ""
}

// SupportedExtensions lists every accepted extension, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionFormats))
	for ext := range extensionFormats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
