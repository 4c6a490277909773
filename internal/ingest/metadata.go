package ingest

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

// Document types assigned by ClassifyDocument.
const (
	TypeComplaint      = "complaint"
	TypeMotion         = "motion"
	TypeContract       = "contract"
	TypeMedicalRecord  = "medical_record"
	TypePoliceReport   = "police_report"
	TypeCorrespondence = "correspondence"
	TypeOther          = "other"
)

// classifyWindow is how much leading text the classifier looks at.
const classifyWindow = 2000

var typeRules = []struct {
	docType  string
	keywords []string
}{
	{TypeComplaint, []string{"complaint for", "complaint", "plaintiff alleges", "prays for judgment"}},
	{TypeMotion, []string{"motion to", "motion for", "notice of motion"}},
	{TypeContract, []string{"agreement", "contract", "hereinafter", "the parties agree"}},
	{TypePoliceReport, []string{"police report", "incident report", "officer", "report number"}},
	{TypeMedicalRecord, []string{"patient", "diagnosis", "treatment", "medical record", "prognosis"}},
	{TypeCorrespondence, []string{"dear ", "sincerely", "regards,"}},
}

var (
	captionRe   = regexp.MustCompile(`(?m)^\s*([A-Z][A-Za-z.,&' -]{1,80}?)\s+v\.\s+([A-Z][A-Za-z.,&' -]{1,80}?)\s*$`)
	partyLineRe = regexp.MustCompile(`(?mi)^\s*(?:plaintiff|defendant|petitioner|respondent|patient)s?\s*:\s*(.+?)\s*$`)
	amountRe    = regexp.MustCompile(`\$\s?\d{1,3}(?:,\d{3})+(?:\.\d{2})?|\$\s?\d+(?:\.\d{2})?`)
	dateRes     = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	}
	citationRes = []*regexp.Regexp{
		regexp.MustCompile(`\b\d+ U\.S\. \d+\b`),
		regexp.MustCompile(`\b\d+ F\.(?: ?Supp\. ?)?\d?(?:d|th)? \d+\b`),
		regexp.MustCompile(`\b\d+ Cal\.(?:App\.)?\s?\d(?:d|th) \d+\b`),
	}
)

// ClassifyDocument guesses the document type from keywords near the top
// of the text.
func ClassifyDocument(text string) string {
	head := []rune(text)
	if len(head) > classifyWindow {
		head = head[:classifyWindow]
	}
	lower := strings.ToLower(string(head))
	for _, rule := range typeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.docType
			}
		}
	}
	return TypeOther
}

// ExtractParties returns the caption parties followed by any labelled
// party lines, without duplicates.
func ExtractParties(text string) []string {
	var out []string
	if m := captionRe.FindStringSubmatch(text); m != nil {
		out = append(out, strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}
	for _, m := range partyLineRe.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return dedupe(out)
}

func ExtractAmounts(text string) []string {
	return dedupe(amountRe.FindAllString(text, -1))
}

func ExtractDates(text string) []string {
	var out []string
	for _, re := range dateRes {
		out = append(out, re.FindAllString(text, -1)...)
	}
	return dedupe(out)
}

func ExtractCitations(text string) []string {
	var out []string
	for _, re := range citationRes {
		out = append(out, re.FindAllString(text, -1)...)
	}
	return dedupe(out)
}

const summaryWindow = 2000

// ExtractMetadata fills every field it can. A field whose extractor fails
// is left empty and logged.
func ExtractMetadata(ctx context.Context, text string, gen Generator, log *slog.Logger) domain.DocumentMetadata {
	var md domain.DocumentMetadata
	safeExtract(log, "document_type", func() { md.DocumentType = ClassifyDocument(text) })
	safeExtract(log, "parties", func() { md.Parties = ExtractParties(text) })
	safeExtract(log, "amounts", func() { md.Amounts = ExtractAmounts(text) })
	safeExtract(log, "dates", func() { md.Dates = ExtractDates(text) })
	safeExtract(log, "citations", func() { md.Citations = ExtractCitations(text) })

	if gen != nil {
		safeExtract(log, "summary", func() {
			head := []rune(text)
			if len(head) > summaryWindow {
				head = head[:summaryWindow]
			}
			s, err := gen.Generate(ctx, summaryPrompt+string(head))
			if err != nil {
				log.Warn("document summary failed", "error", err)
				return
			}
			md.Summary = strings.TrimSpace(s)
		})
	}
	return md
}

const summaryPrompt = "Summarize the following legal document excerpt in at most three sentences. " +
	"Name the document type, the parties, and any amounts or dates that matter.\n\n"

func safeExtract(log *slog.Logger, field string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("metadata extraction failed", "field", field, "panic", r)
		}
	}()
	fn()
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
