package api

import (
	stderrors "errors"
	"net/http"

	"surveyclean/domain/core"
	"surveyclean/internal/errors"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Status  int      `json:"-"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// Render implements render.Renderer
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Status)
	return nil
}

// errorResponse maps domain sentinels and AppError codes onto HTTP statuses
func errorResponse(err error) *ErrorResponse {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Namespace()+": "+fe.Tag())
		}
		return &ErrorResponse{Status: http.StatusBadRequest, Code: errors.CodeValidationError, Message: "request failed validation", Fields: fields}
	}

	var maxBytes *http.MaxBytesError
	switch {
	case stderrors.As(err, &maxBytes):
		return &ErrorResponse{Status: http.StatusRequestEntityTooLarge, Code: errors.CodeInvalidInput, Message: err.Error()}
	case core.IsNotFoundError(err):
		return &ErrorResponse{Status: http.StatusNotFound, Code: errors.CodeNotFound, Message: err.Error()}
	case core.IsPreconditionError(err):
		return &ErrorResponse{Status: http.StatusBadRequest, Code: errors.CodeInvalidInput, Message: err.Error()}
	}

	switch code := errors.GetCode(err); code {
	case errors.CodeNotFound:
		return &ErrorResponse{Status: http.StatusNotFound, Code: code, Message: err.Error()}
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return &ErrorResponse{Status: http.StatusBadRequest, Code: code, Message: err.Error()}
	case errors.CodeDatabaseError:
		return &ErrorResponse{Status: http.StatusServiceUnavailable, Code: code, Message: "storage unavailable"}
	}
	return &ErrorResponse{Status: http.StatusInternalServerError, Code: errors.CodeInternalError, Message: "internal error"}
}
