package letter

import (
	"strings"
	"text/template"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

// Template types.
const (
	TemplateDemand      = "demand_letter"
	TemplateFinalDemand = "final_demand"
)

// templateData is what the letter templates render.
type templateData struct {
	Date      string
	CaseID    string
	Plaintiff string
	Defendant string
	Totals    Totals
	Medical   domain.LetterSection
	LostWages domain.LetterSection
	Liability domain.LetterSection
	Pain      domain.LetterSection
}

var templateFuncs = template.FuncMap{
	"usd":  domain.FormatUSD,
	"trim": strings.TrimSpace,
}

const demandLetterTemplate = `[LAW FIRM LETTERHEAD]
{{.Date}}

{{.Defendant}}
Attn: Claims Department

Re: Demand for {{usd .Totals.Total}} – Case {{.CaseID}}

Dear Sir or Madam:

On behalf of our client, {{.Plaintiff}}, we demand payment of {{usd .Totals.Total}} for injuries sustained due to your insured's negligence.

BASED ON OUR ANALYSIS OF THE CASE DOCUMENTS:

{{trim .Medical.Body}}

{{trim .LostWages.Body}}

{{trim .Pain.Body}}

LIABILITY EVIDENCE:
{{trim .Liability.Body}}

DETAILED BREAKDOWN:
1. Medical Expenses: {{usd .Totals.Medical}}
2. Lost Wages: {{usd .Totals.LostWages}}
3. Pain & Suffering: {{usd .Totals.PainSuffering}}
TOTAL DEMAND: {{usd .Totals.Total}}

Please remit payment within 30 days of this letter.

Sincerely,

[Attorney Name]
`

const finalDemandTemplate = `[LAW FIRM LETTERHEAD]
{{.Date}}

{{.Defendant}}
Attn: Claims Department

Re: FINAL DEMAND for {{usd .Totals.Total}} – Case {{.CaseID}}

Dear Sir or Madam:

This is our final demand on behalf of our client, {{.Plaintiff}}. Our earlier demand for {{usd .Totals.Total}} remains unanswered. Absent full payment we are instructed to file suit without further notice.

LIABILITY EVIDENCE:
{{trim .Liability.Body}}

DAMAGES:

{{trim .Medical.Body}}

{{trim .LostWages.Body}}

{{trim .Pain.Body}}

DETAILED BREAKDOWN:
1. Medical Expenses: {{usd .Totals.Medical}}
2. Lost Wages: {{usd .Totals.LostWages}}
3. Pain & Suffering: {{usd .Totals.PainSuffering}}
TOTAL DEMAND: {{usd .Totals.Total}}

Payment must be received within 10 days of this letter.

Sincerely,

[Attorney Name]
`

var templates = map[string]*template.Template{
	TemplateDemand:      template.Must(template.New(TemplateDemand).Funcs(templateFuncs).Parse(demandLetterTemplate)),
	TemplateFinalDemand: template.Must(template.New(TemplateFinalDemand).Funcs(templateFuncs).Parse(finalDemandTemplate)),
}

// Templates lists the accepted template types.
func Templates() []string {
	return []string{TemplateDemand, TemplateFinalDemand}
}
