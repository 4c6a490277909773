package protocol

import (
	"context"
	"errors"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

// Error codes follow JSON-RPC where a standard code exists.
const (
	CodeInvalidRequest      = -32600
	CodeMethodNotFound      = -32601
	CodeInvalidParams       = -32602
	CodeInternal            = -32603
	CodeNotFound            = -32004
	CodeProviderUnavailable = -32010
	CodeGenerationFailed    = -32011
	CodeIngestionFailed     = -32012
)

// Request is the wire envelope for one method call.
type Request struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
	ID     any            `json:"id,omitempty"`
}

// Response carries either Result or Error, echoing the request ID.
type Response struct {
	ID     any    `json:"id,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// Data holds the retrieved context when generation failed.
	Data any `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// ErrorCode maps an error onto the envelope's code space.
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownMethod):
		return CodeMethodNotFound
	case errors.Is(err, domain.ErrMissingParameter), errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrUnsupportedFormat):
		return CodeInvalidParams
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrProviderUnavailable) && !errors.Is(err, domain.ErrGenerationFailed):
		return CodeProviderUnavailable
	case errors.Is(err, domain.ErrGenerationFailed):
		return CodeGenerationFailed
	case errors.Is(err, domain.ErrIngestionFailure):
		return CodeIngestionFailed
	default:
		return CodeInternal
	}
}

// NewError converts err into an envelope error.
func NewError(err error) *Error {
	e := &Error{Code: ErrorCode(err), Message: err.Error()}
	var gen *domain.GenerationError
	if errors.As(err, &gen) {
		e.Data = gen.Context
	}
	return e
}

// Handle runs one envelope through the dispatcher.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	if req.Method == "" {
		return Response{ID: req.ID, Error: &Error{Code: CodeInvalidRequest, Message: "method is required"}}
	}
	result, err := d.Dispatch(ctx, req.Method, req.Params)
	if err != nil {
		return Response{ID: req.ID, Error: NewError(err)}
	}
	return Response{ID: req.ID, Result: result}
}
