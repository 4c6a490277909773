package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/llm"
)

// QueryParams are the decoded arguments of legal.query. An empty CaseID
// selects system scope.
type QueryParams struct {
	Query   string
	CaseID  string
	Context map[string]any
	LLM     llm.Overrides
}

// AnalyzeParams are the decoded arguments of legal.analyze_document.
type AnalyzeParams struct {
	FilePath string
	CaseID   string
	LLM      llm.Overrides
}

// LetterParams are the decoded arguments of legal.generate_demand_letter.
type LetterParams struct {
	CaseID            string
	TemplateType      string
	AdditionalContext map[string]any
	LLM               llm.Overrides
}

// CaseContextParams are the decoded arguments of legal.get_case_context.
type CaseContextParams struct {
	CaseID string
	LLM    llm.Overrides
}

// DefaultTemplateType is used when legal.generate_demand_letter names none.
const DefaultTemplateType = "demand_letter"

// args wraps a raw parameter map for one method.
type args struct {
	method string
	m      map[string]any
}

// required returns a non-blank string parameter or a *domain.ParamError.
// A present value of the wrong type is invalid input, not a missing one.
func (a args) required(name string) (string, error) {
	s, err := a.optional(name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &domain.ParamError{Method: a.method, Param: name}
	}
	return s, nil
}

func (a args) optional(name string) (string, error) {
	v, ok := a.m[name]
	if !ok || v == nil {
		return "", nil
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case fmt.Stringer:
		return strings.TrimSpace(t.String()), nil
	default:
		return "", fmt.Errorf("%w: %s: parameter %q must be a string", domain.ErrInvalidInput, a.method, name)
	}
}

// object decodes a free-form context parameter. A bare string is kept
// under the parameter's own name so callers can pass plain notes.
func (a args) object(name string) (map[string]any, error) {
	v, ok := a.m[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		return map[string]any{name: t}, nil
	default:
		return nil, fmt.Errorf("%w: %s: parameter %q must be an object", domain.ErrInvalidInput, a.method, name)
	}
}

// overrides reads the LLM override fields from the nested "llm" object
// first, then from the top level.
func (a args) overrides() (llm.Overrides, error) {
	var o llm.Overrides
	if nested, ok := a.m[ParamLLM]; ok && nested != nil {
		obj, ok := nested.(map[string]any)
		if !ok {
			return o, fmt.Errorf("%w: %s: parameter %q must be an object", domain.ErrInvalidInput, a.method, ParamLLM)
		}
		if err := (args{method: a.method, m: obj}).applyOverrides(&o); err != nil {
			return o, err
		}
	}
	if err := a.applyOverrides(&o); err != nil {
		return o, err
	}
	return o, nil
}

func (a args) applyOverrides(o *llm.Overrides) error {
	fields := []struct {
		name string
		dst  *string
	}{
		{ParamProvider, &o.Provider},
		{ParamModel, &o.Model},
		{ParamBaseURL, &o.BaseURL},
		{ParamAPIKey, &o.APIKey},
	}
	for _, f := range fields {
		s, err := a.optional(f.name)
		if err != nil {
			return err
		}
		if s != "" {
			*f.dst = s
		}
	}
	t, err := a.number(ParamTemperature)
	if err != nil {
		return err
	}
	if t != nil {
		o.Temperature = t
	}
	return nil
}

// number accepts JSON numbers and numeric strings.
func (a args) number(name string) (*float64, error) {
	v, ok := a.m[name]
	if !ok || v == nil {
		return nil, nil
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: parameter %q must be a number", domain.ErrInvalidInput, a.method, name)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("%w: %s: parameter %q must be a number", domain.ErrInvalidInput, a.method, name)
	}
	return &f, nil
}

func decodeQuery(a args) (QueryParams, error) {
	var p QueryParams
	var err error
	if p.Query, err = a.required(ParamQuery); err != nil {
		return p, err
	}
	if p.CaseID, err = a.optional(ParamCaseID); err != nil {
		return p, err
	}
	if p.Context, err = a.object(ParamContext); err != nil {
		return p, err
	}
	p.LLM, err = a.overrides()
	return p, err
}

func decodeAnalyze(a args) (AnalyzeParams, error) {
	var p AnalyzeParams
	var err error
	if p.FilePath, err = a.required(ParamFilePath); err != nil {
		return p, err
	}
	if p.CaseID, err = a.required(ParamCaseID); err != nil {
		return p, err
	}
	p.LLM, err = a.overrides()
	return p, err
}

func decodeLetter(a args) (LetterParams, error) {
	var p LetterParams
	var err error
	if p.CaseID, err = a.required(ParamCaseID); err != nil {
		return p, err
	}
	if p.TemplateType, err = a.optional(ParamTemplateType); err != nil {
		return p, err
	}
	if p.TemplateType == "" {
		p.TemplateType = DefaultTemplateType
	}
	if p.AdditionalContext, err = a.object(ParamAdditionalContext); err != nil {
		return p, err
	}
	p.LLM, err = a.overrides()
	return p, err
}

func decodeCaseContext(a args) (CaseContextParams, error) {
	var p CaseContextParams
	var err error
	if p.CaseID, err = a.required(ParamCaseID); err != nil {
		return p, err
	}
	p.LLM, err = a.overrides()
	return p, err
}

// DecodeOverrides reads the LLM override fields from a raw parameter map,
// for endpoints that are not dispatcher methods.
func DecodeOverrides(method string, params map[string]any) (llm.Overrides, error) {
	return args{method: method, m: params}.overrides()
}
