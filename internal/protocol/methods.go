package protocol

// Method names accepted by Dispatch.
const (
	MethodQuery                = "legal.query"
	MethodAnalyzeDocument      = "legal.analyze_document"
	MethodGenerateDemandLetter = "legal.generate_demand_letter"
	MethodGetCaseContext       = "legal.get_case_context"
)

// Parameter names.
const (
	ParamQuery             = "query"
	ParamCaseID            = "case_id"
	ParamContext           = "context"
	ParamFilePath          = "file_path"
	ParamTemplateType      = "template_type"
	ParamAdditionalContext = "additional_context"

	ParamProvider    = "provider"
	ParamModel       = "model"
	ParamBaseURL     = "base_url"
	ParamAPIKey      = "api_key"
	ParamTemperature = "temperature"
	// ParamLLM nests the override fields in one object. Top-level keys win.
	ParamLLM = "llm"
)

// Parameter value types, as advertised to clients.
const (
	TypeString = "string"
	TypeNumber = "number"
	TypeObject = "object"
)

// ParamInfo describes one method parameter.
type ParamInfo struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

// MethodInfo describes one method for discovery endpoints and tool lists.
type MethodInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ParamInfo `json:"params"`
}

// Required lists the names of the required parameters.
func (m MethodInfo) Required() []string {
	var out []string
	for _, p := range m.Params {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

var llmParams = []ParamInfo{
	{Name: ParamProvider, Type: TypeString, Description: "LLM provider override", Enum: []string{"ollama", "openai", "anthropic"}},
	{Name: ParamModel, Type: TypeString, Description: "Model name override"},
	{Name: ParamBaseURL, Type: TypeString, Description: "Provider endpoint override"},
	{Name: ParamAPIKey, Type: TypeString, Description: "Provider API key override"},
	{Name: ParamTemperature, Type: TypeNumber, Description: "Sampling temperature between 0 and 1"},
}

var methods = []MethodInfo{
	{
		Name:        MethodQuery,
		Description: "Answer a legal question from a case's documents, or from the all-cases overview when no case_id is given.",
		Params: []ParamInfo{
			{Name: ParamQuery, Type: TypeString, Description: "Natural language question", Required: true},
			{Name: ParamCaseID, Type: TypeString, Description: "Case to search; omit or use \"system\" for the all-cases overview"},
			{Name: ParamContext, Type: TypeObject, Description: "Additional context passed to the model"},
		},
	},
	{
		Name:        MethodAnalyzeDocument,
		Description: "Extract, chunk, embed and store a document under a case.",
		Params: []ParamInfo{
			{Name: ParamFilePath, Type: TypeString, Description: "Path to a PDF, DOCX, HTML, Markdown or text file", Required: true},
			{Name: ParamCaseID, Type: TypeString, Description: "Case the document belongs to", Required: true},
		},
	},
	{
		Name:        MethodGenerateDemandLetter,
		Description: "Draft a demand letter from the case record and its documents.",
		Params: []ParamInfo{
			{Name: ParamCaseID, Type: TypeString, Description: "Case to draft the letter for", Required: true},
			{Name: ParamTemplateType, Type: TypeString, Description: "Letter template", Enum: []string{"demand_letter", "final_demand"}},
			{Name: ParamAdditionalContext, Type: TypeObject, Description: "Additional context passed to every section query"},
		},
	},
	{
		Name:        MethodGetCaseContext,
		Description: "Return a case's parties, timeline and financials with a summary of its documents.",
		Params: []ParamInfo{
			{Name: ParamCaseID, Type: TypeString, Description: "Case to describe", Required: true},
		},
	},
}

// Methods lists every supported method with its parameters, the LLM
// overrides included.
func Methods() []MethodInfo {
	out := make([]MethodInfo, len(methods))
	for i, m := range methods {
		params := make([]ParamInfo, 0, len(m.Params)+len(llmParams))
		params = append(params, m.Params...)
		params = append(params, llmParams...)
		m.Params = params
		out[i] = m
	}
	return out
}

// Lookup returns the description of a method.
func Lookup(name string) (MethodInfo, bool) {
	for _, m := range Methods() {
		if m.Name == name {
			return m, true
		}
	}
	return MethodInfo{}, false
}
