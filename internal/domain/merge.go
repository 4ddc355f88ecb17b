package domain

import (
	"context"
	"net/url"
	"strings"
)

const (
	FieldTitle       = "title"
	FieldSyllabusURL = "syllabusUrl"
)

// MergeRequest is the decoded body of a merge call. Pointer fields let the
// handler tell an absent key apart from an empty one.
type MergeRequest struct {
	Title       *string `json:"title"`
	SyllabusURL *string `json:"syllabusUrl"`
}

// NewMergeRequest builds a request with both fields present.
func NewMergeRequest(title, syllabusURL string) MergeRequest {
	return MergeRequest{Title: &title, SyllabusURL: &syllabusURL}
}

// Validate checks field presence and the URL shape. The URL must be absolute
// http or https.
func (r MergeRequest) Validate() error {
	if r.Title == nil || strings.TrimSpace(*r.Title) == "" {
		return &MissingFieldError{Field: FieldTitle}
	}
	if r.SyllabusURL == nil || strings.TrimSpace(*r.SyllabusURL) == "" {
		return &MissingFieldError{Field: FieldSyllabusURL}
	}

	u, err := url.Parse(strings.TrimSpace(*r.SyllabusURL))
	if err != nil {
		return &InvalidFieldError{Field: FieldSyllabusURL, Reason: "not a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &InvalidFieldError{Field: FieldSyllabusURL, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &InvalidFieldError{Field: FieldSyllabusURL, Reason: "host is required"}
	}
	return nil
}

// TitleText returns the title, or "" when absent.
func (r MergeRequest) TitleText() string {
	if r.Title == nil {
		return ""
	}
	return *r.Title
}

// URL returns the trimmed source URL, or "" when absent.
func (r MergeRequest) URL() string {
	if r.SyllabusURL == nil {
		return ""
	}
	return strings.TrimSpace(*r.SyllabusURL)
}

// SourceFetcher retrieves the raw bytes of a source document.
type SourceFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}
