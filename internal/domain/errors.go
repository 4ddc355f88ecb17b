package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidField   = errors.New("invalid field")
	ErrSourceFetch    = errors.New("failed to fetch syllabus")
	ErrDocumentParse  = errors.New("invalid document")
	ErrEmptyDocument  = errors.New("document has no paragraphs")
)

// MissingFieldError reports a required request field that is absent or blank.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// InvalidFieldError reports a present request field with an unusable value.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s %s: %s", ErrInvalidField, e.Field, e.Reason)
}

func (e *InvalidFieldError) Unwrap() error {
	return ErrInvalidField
}

// SourceFetchError reports a failed retrieval of the source document.
// StatusCode is set when the upstream answered with a non-success status;
// otherwise Err holds the transport failure.
type SourceFetchError struct {
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *SourceFetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("Failed to fetch syllabus: %d", e.StatusCode)
	case e.Timeout:
		return "Failed to fetch syllabus: timed out"
	case e.Err != nil:
		return fmt.Sprintf("Failed to fetch syllabus: %v", e.Err)
	default:
		return "Failed to fetch syllabus"
	}
}

func (e *SourceFetchError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSourceFetch, e.Err}
	}
	return []error{ErrSourceFetch}
}

// DocumentParseError reports bytes that are not a usable word-processing package.
type DocumentParseError struct {
	Reason string
	Err    error
}

func (e *DocumentParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrDocumentParse, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrDocumentParse, e.Reason)
}

func (e *DocumentParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDocumentParse, e.Err}
	}
	return []error{ErrDocumentParse}
}

// EmptyDocumentError reports a document body without a paragraph to anchor
// the title on.
type EmptyDocumentError struct{}

func (e *EmptyDocumentError) Error() string {
	return ErrEmptyDocument.Error()
}

func (e *EmptyDocumentError) Unwrap() error {
	return ErrEmptyDocument
}
