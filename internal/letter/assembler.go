// Package letter assembles demand letters from case records and
// retrieval over the case's documents.
package letter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/sync/errgroup"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/casedata"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/rag"
)

// DefaultConcurrency bounds the section sub-queries in flight.
const DefaultConcurrency = 4

// Section names.
const (
	SectionMedical       = "medical"
	SectionLostWages     = "lost_wages"
	SectionLiability     = "liability"
	SectionPainSuffering = "pain_suffering"
)

type sectionSpec struct {
	name     string
	title    string
	query    string
	record   string
	fallback string
}

var sectionSpecs = []sectionSpec{
	{
		name:     SectionMedical,
		title:    "Medical Expenses",
		query:    "Summarize medical expenses and treatment details",
		record:   domain.RecordMedical,
		fallback: "Our client required medical treatment as a direct result of the incident. Itemized medical bills and treatment records are available on request.",
	},
	{
		name:     SectionLostWages,
		title:    "Lost Wages",
		query:    "Calculate lost wages and income impact",
		record:   domain.RecordLostWages,
		fallback: "Our client was unable to work during recovery and lost income as a result. Employment and payroll records documenting the loss are available on request.",
	},
	{
		name:     SectionLiability,
		title:    "Liability",
		query:    "Identify liability and negligence evidence",
		fallback: "The evidence establishes that your insured breached the duty of care owed to our client and that this breach caused our client's injuries.",
	},
	{
		name:     SectionPainSuffering,
		title:    "Pain and Suffering",
		query:    "Assess pain and suffering factors",
		record:   domain.RecordPainSuffering,
		fallback: "Our client has endured significant physical pain, emotional distress and loss of enjoyment of life as a result of these injuries.",
	},
}

// Querier runs one case-scoped retrieval query. *rag.Engine satisfies it.
type Querier interface {
	Query(ctx context.Context, gen rag.Generator, text, scope string, extra map[string]any) (*rag.Response, error)
}

type Options struct {
	Concurrency int
	Logger      *slog.Logger
	// Now stamps the letter date; tests pin it.
	Now func() time.Time
}

type Assembler struct {
	cases       casedata.Source
	rag         Querier
	concurrency int
	log         *slog.Logger
	now         func() time.Time
	md          goldmark.Markdown
}

func New(cases casedata.Source, q Querier, opts Options) *Assembler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Assembler{
		cases:       cases,
		rag:         q,
		concurrency: opts.Concurrency,
		log:         logging.OrDefault(opts.Logger),
		now:         opts.Now,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

type Request struct {
	CaseID       string
	TemplateType string
	Extra        map[string]any
	Generator    rag.Generator
}

// Totals are the demand amounts by record type.
type Totals struct {
	Medical       float64 `json:"medical"`
	LostWages     float64 `json:"lost_wages"`
	PainSuffering float64 `json:"pain_suffering"`
	Total         float64 `json:"total"`
}

type Letter struct {
	CaseID       string                 `json:"case_id"`
	TemplateType string                 `json:"template_type"`
	Content      string                 `json:"letter_content"`
	HTML         string                 `json:"letter_html"`
	Plaintiff    string                 `json:"plaintiff"`
	Defendant    string                 `json:"defendant"`
	Totals       Totals                 `json:"totals"`
	Sections     []domain.LetterSection `json:"sections"`
	RAGContext   map[string]string      `json:"rag_context"`
	GeneratedAt  time.Time              `json:"generated_at"`
}

// Degraded reports whether any section fell back to boilerplate.
func (l *Letter) Degraded() bool {
	for _, s := range l.Sections {
		if s.Fallback {
			return true
		}
	}
	return false
}

// Assemble builds a letter. Section queries that fail are replaced by
// boilerplate, so once the case is found a letter is always produced.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*Letter, error) {
	caseID := strings.TrimSpace(req.CaseID)
	if caseID == "" {
		return nil, fmt.Errorf("%w: case id is required", domain.ErrInvalidInput)
	}
	c, err := a.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	tmplType := strings.TrimSpace(req.TemplateType)
	if tmplType == "" {
		tmplType = TemplateDemand
	}
	tmpl, ok := templates[tmplType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown template type %q (want one of %s)",
			domain.ErrInvalidInput, tmplType, strings.Join(Templates(), ", "))
	}

	totals := computeTotals(c)
	sections := a.runSections(ctx, caseID, req, totals)

	data := templateData{
		Date:      a.now().Format("January 2, 2006"),
		CaseID:    c.CaseID,
		Plaintiff: orDefault(c.PartyByType("plaintiff"), "our client"),
		Defendant: orDefault(c.PartyByType("defendant"), "Defendant"),
		Totals:    totals,
		Medical:   sections[0],
		LostWages: sections[1],
		Liability: sections[2],
		Pain:      sections[3],
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", tmplType, err)
	}
	content := strings.TrimSpace(buf.String())

	var htmlBuf bytes.Buffer
	if err := a.md.Convert([]byte(content), &htmlBuf); err != nil {
		return nil, fmt.Errorf("rendering %s html: %w", tmplType, err)
	}

	ragContext := make(map[string]string, len(sections))
	for i, s := range sections {
		ragContext[sectionSpecs[i].query] = s.Body
	}

	l := &Letter{
		CaseID:       c.CaseID,
		TemplateType: tmplType,
		Content:      content,
		HTML:         htmlBuf.String(),
		Plaintiff:    data.Plaintiff,
		Defendant:    data.Defendant,
		Totals:       totals,
		Sections:     sections,
		RAGContext:   ragContext,
		GeneratedAt:  a.now(),
	}
	a.log.Info("demand letter assembled",
		"case_id", c.CaseID,
		"template", tmplType,
		"total", totals.Total,
		"degraded", l.Degraded(),
	)
	return l, nil
}

// runSections issues the section queries concurrently. Results keep the
// order of sectionSpecs regardless of completion order.
func (a *Assembler) runSections(ctx context.Context, caseID string, req Request, totals Totals) []domain.LetterSection {
	sections := make([]domain.LetterSection, len(sectionSpecs))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, spec := range sectionSpecs {
		g.Go(func() error {
			s := domain.LetterSection{
				Name:      spec.name,
				Title:     spec.title,
				Amount:    totals.amountFor(spec.record),
				Retrieved: []domain.ScoredChunk{},
			}
			resp, err := a.rag.Query(ctx, req.Generator, spec.query, caseID, req.Extra)
			if err != nil {
				s.Body = spec.fallback
				s.Fallback = true
				s.Error = err.Error()
				var genErr *domain.GenerationError
				if errors.As(err, &genErr) && genErr.Context.Retrieved != nil {
					s.Retrieved = genErr.Context.Retrieved
				}
				a.log.Warn("letter section fell back to boilerplate", "case_id", caseID, "section", spec.name, "error", err)
			} else {
				s.Body = resp.Answer
				if resp.Context.Retrieved != nil {
					s.Retrieved = resp.Context.Retrieved
				}
			}
			sections[i] = s
			return nil
		})
	}
	_ = g.Wait()
	return sections
}

func computeTotals(c *domain.Case) Totals {
	by := c.TotalsByType()
	t := Totals{
		Medical:       by[domain.RecordMedical],
		LostWages:     by[domain.RecordLostWages],
		PainSuffering: by[domain.RecordPainSuffering],
	}
	t.Total = t.Medical + t.LostWages + t.PainSuffering
	return t
}

func (t Totals) amountFor(record string) float64 {
	switch record {
	case domain.RecordMedical:
		return t.Medical
	case domain.RecordLostWages:
		return t.LostWages
	case domain.RecordPainSuffering:
		return t.PainSuffering
	}
	return 0
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
