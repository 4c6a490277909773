package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/ingest"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
)

const maxJSONBody = 1 << 20

func (s *Server) registerRoutes(r chi.Router) {
	r.Route("/mcp", func(r chi.Router) {
		r.Get("/tools", s.handleTools)
		r.Post("/query", s.handleEnvelope)
		r.Post("/generate_demand_letter", s.handleMethod(protocol.MethodGenerateDemandLetter))
	})
	r.Route("/rag", func(r chi.Router) {
		r.Post("/query", s.handleMethod(protocol.MethodQuery))
		r.Post("/process_document", s.handleMethod(protocol.MethodAnalyzeDocument))
		r.Post("/upload", s.handleUpload)
		r.Post("/process_folder", s.handleProcessFolder)
	})
	r.Get("/cases", s.handleCases)
	r.Get("/cases/{caseID}/context", s.handleCaseContext)
	r.Get("/system/overview", s.handleOverview)
	r.Get("/system/timeline", s.handleTimeline)
	r.Get("/llm/providers", s.handleProviders)
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": protocol.Methods()})
}

// handleEnvelope serves the {method, params, id} envelope. Failures carry
// the status of the underlying error and an envelope error body.
func (s *Server) handleEnvelope(w http.ResponseWriter, r *http.Request) {
	var req protocol.Request
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.Response{
			Error: &protocol.Error{Code: protocol.CodeInvalidRequest, Message: err.Error()},
		})
		return
	}
	if req.Method == "" {
		writeJSON(w, http.StatusBadRequest, protocol.Response{
			ID:    req.ID,
			Error: &protocol.Error{Code: protocol.CodeInvalidRequest, Message: "method is required"},
		})
		return
	}
	result, err := s.dispatcher.Dispatch(r.Context(), req.Method, req.Params)
	if err != nil {
		writeJSON(w, statusFor(err), protocol.Response{ID: req.ID, Error: protocol.NewError(err)})
		return
	}
	writeJSON(w, http.StatusOK, protocol.Response{ID: req.ID, Result: result})
}

// handleMethod serves one method with the JSON body as its parameters.
func (s *Server) handleMethod(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params map[string]any
		if err := decodeJSON(r, &params); err != nil {
			writeError(w, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
			return
		}
		result, err := s.dispatcher.Dispatch(r.Context(), method, params)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleCaseContext(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{protocol.ParamCaseID: chi.URLParam(r, "caseID")}
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			params[key] = vals[0]
		}
	}
	result, err := s.dispatcher.Dispatch(r.Context(), protocol.MethodGetCaseContext, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, fmt.Errorf("%w: reading upload: %w", domain.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	caseID := strings.TrimSpace(r.FormValue(protocol.ParamCaseID))
	if caseID == "" {
		writeError(w, &domain.ParamError{Method: "upload", Param: protocol.ParamCaseID})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, &domain.ParamError{Method: "upload", Param: "file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("%w: reading upload: %w", domain.ErrInvalidInput, err))
		return
	}

	form := map[string]any{}
	for _, key := range []string{protocol.ParamProvider, protocol.ParamModel, protocol.ParamBaseURL, protocol.ParamAPIKey, protocol.ParamTemperature} {
		if v := r.FormValue(key); v != "" {
			form[key] = v
		}
	}
	overrides, err := protocol.DecodeOverrides("upload", form)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.svc.IngestUpload(r.Context(), header.Filename, data, caseID, overrides)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type folderRequest struct {
	FolderPath string   `json:"folder_path"`
	CaseID     string   `json:"case_id"`
	Include    []string `json:"include"`
	Exclude    []string `json:"exclude"`
	Recursive  *bool    `json:"recursive"`
}

func (s *Server) handleProcessFolder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}
	var req folderRequest
	var raw map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON: %w", domain.ErrInvalidInput, err))
		return
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON: %w", domain.ErrInvalidInput, err))
		return
	}

	switch {
	case strings.TrimSpace(req.FolderPath) == "":
		writeError(w, &domain.ParamError{Method: "process_folder", Param: "folder_path"})
		return
	case strings.TrimSpace(req.CaseID) == "":
		writeError(w, &domain.ParamError{Method: "process_folder", Param: protocol.ParamCaseID})
		return
	}
	overrides, err := protocol.DecodeOverrides("process_folder", raw)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := ingest.FolderOptions{Include: req.Include, Exclude: req.Exclude, Recursive: true}
	if req.Recursive != nil {
		opts.Recursive = *req.Recursive
	}
	res, err := s.svc.IngestFolder(r.Context(), req.FolderPath, strings.TrimSpace(req.CaseID), opts, overrides, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.svc.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.svc.ListCases(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": cases})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.Timeline(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeline": events})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": s.svc.Providers()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrConfiguration),
		errors.Is(err, domain.ErrMissingParameter), errors.Is(err, domain.ErrUnknownMethod),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrIngestionFailure):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	// Context is the retrieval a failed generation was built on.
	Context *domain.QueryContext `json:"context,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error(), Code: protocol.ErrorCode(err)}
	var ge *domain.GenerationError
	if errors.As(err, &ge) {
		body.Context = &ge.Context
	}
	writeJSON(w, statusFor(err), body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
