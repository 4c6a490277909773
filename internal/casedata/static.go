package casedata

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

// StaticSource serves a fixed set of cases held in memory.
type StaticSource struct {
	cases map[string]domain.Case
}

// NewStatic builds a source from literal cases. Later duplicates win.
func NewStatic(cases ...domain.Case) *StaticSource {
	s := &StaticSource{cases: make(map[string]domain.Case, len(cases))}
	for _, c := range cases {
		s.cases[c.CaseID] = c
	}
	return s
}

type fixtureFile struct {
	Cases []domain.Case `yaml:"cases"`
}

// LoadFile reads a YAML fixture of the form `cases: [...]`.
func LoadFile(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case fixture: %w", err)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing case fixture %s: %w", path, err)
	}
	for i, c := range f.Cases {
		if c.CaseID == "" {
			return nil, fmt.Errorf("case fixture %s: entry %d has no case_id", path, i)
		}
	}
	return NewStatic(f.Cases...), nil
}

func (s *StaticSource) GetCase(_ context.Context, caseID string) (*domain.Case, error) {
	c, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case %q: %w", caseID, domain.ErrNotFound)
	}
	return &c, nil
}

func (s *StaticSource) ListCases(_ context.Context) ([]domain.CaseSummary, error) {
	out := make([]domain.CaseSummary, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, c.Summarize())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out, nil
}

// Cases returns every case held by a static source, for seeding.
func (s *StaticSource) Cases() []domain.Case {
	out := make([]domain.Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out
}
