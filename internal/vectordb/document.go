package vectordb

// Metadata keys stored on every indexed chunk.
const (
	metaCaseID     = "case_id"
	metaDocumentID = "document_id"
)

// SearchFilter narrows a search to chunks whose metadata match.
type SearchFilter struct {
	CaseID     string
	DocumentID string
}

func (f *SearchFilter) where() map[string]string {
	if f == nil {
		return nil
	}
	w := make(map[string]string, 2)
	if f.CaseID != "" {
		w[metaCaseID] = f.CaseID
	}
	if f.DocumentID != "" {
		w[metaDocumentID] = f.DocumentID
	}
	if len(w) == 0 {
		return nil
	}
	return w
}

func (f *SearchFilter) matches(caseID, documentID string) bool {
	if f == nil {
		return true
	}
	if f.CaseID != "" && f.CaseID != caseID {
		return false
	}
	if f.DocumentID != "" && f.DocumentID != documentID {
		return false
	}
	return true
}
