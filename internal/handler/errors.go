package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/amaumene/syllabus-merge/internal/domain"
)

var errRequestTooLarge = errors.New("request body too large")

// ResponseError represents an error response
type ResponseError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// errorResponse maps a pipeline error to its status code and body.
func errorResponse(err error) (int, ResponseError) {
	var (
		missing *domain.MissingFieldError
		invalid *domain.InvalidFieldError
		fetch   *domain.SourceFetchError
		parse   *domain.DocumentParseError
	)

	switch {
	case errors.As(err, &fetch):
		switch {
		case fetch.StatusCode != 0:
			return http.StatusInternalServerError, ResponseError{Error: fetch.Error()}
		case fetch.Timeout:
			return http.StatusGatewayTimeout, ResponseError{Error: fetch.Error()}
		default:
			resp := ResponseError{Error: "Failed to fetch syllabus"}
			if fetch.Err != nil {
				resp.Message = fetch.Err.Error()
			}
			return http.StatusBadGateway, resp
		}
	case errors.As(err, &missing):
		return http.StatusBadRequest, ResponseError{
			Error:   "Missing required field",
			Message: fmt.Sprintf("%s is required", missing.Field),
		}
	case errors.As(err, &invalid):
		return http.StatusBadRequest, ResponseError{
			Error:   "Invalid field",
			Message: fmt.Sprintf("%s: %s", invalid.Field, invalid.Reason),
		}
	case errors.As(err, &parse):
		return http.StatusUnprocessableEntity, ResponseError{
			Error:   "Invalid document",
			Message: parse.Reason,
		}
	case errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusUnprocessableEntity, ResponseError{
			Error:   "Empty document",
			Message: "The syllabus has no paragraph to place the title before",
		}
	case errors.Is(err, errRequestTooLarge):
		return http.StatusRequestEntityTooLarge, ResponseError{Error: "Request body too large"}
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, ResponseError{
			Error:   "Invalid JSON",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, ResponseError{Error: "Internal server error"}
	}
}
