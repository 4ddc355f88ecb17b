package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amaumene/syllabus-merge/internal/docx"
	"github.com/amaumene/syllabus-merge/internal/domain"
	log "github.com/sirupsen/logrus"
)

const zipContentType = "application/zip"

type MergeService struct {
	fetcher domain.SourceFetcher
}

func NewMergeService(fetcher domain.SourceFetcher) *MergeService {
	return &MergeService{fetcher: fetcher}
}

// Merge fetches the document named by req and returns it with the title
// prepended.
func (s *MergeService) Merge(ctx context.Context, req domain.MergeRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	data, err := s.fetcher.Fetch(ctx, req.URL())
	if err != nil {
		return nil, fmt.Errorf("fetching source: %w", err)
	}

	return s.MergeDocument(data, req.TitleText())
}

// MergeDocument prepends title to an already retrieved package.
func (s *MergeService) MergeDocument(data []byte, title string) ([]byte, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &domain.MissingFieldError{Field: domain.FieldTitle}
	}
	if err := sniff(data); err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := docx.Open(data)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}

	if err := doc.PrependParagraph(title, docx.TitleStyle); err != nil {
		return nil, fmt.Errorf("inserting title: %w", err)
	}

	out, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}

	fields := log.Fields{
		"component": "merge",
		"part":      doc.MainPart(),
		"in_bytes":  len(data),
		"out_bytes": len(out),
		"duration":  time.Since(start),
	}
	if n, err := doc.ParagraphCount(); err == nil {
		fields["paragraphs"] = n
	}
	log.WithFields(fields).Debug("title prepended")

	return out, nil
}

// sniff rejects bodies that are not zip containers before parsing, so a
// source that serves HTML or PDF gets a precise diagnostic.
func sniff(data []byte) error {
	if len(data) == 0 {
		return &domain.DocumentParseError{Reason: "source returned an empty body"}
	}
	if detected := http.DetectContentType(data); detected != zipContentType {
		return &domain.DocumentParseError{Reason: fmt.Sprintf("source returned %s, expected a docx package", detected)}
	}
	return nil
}
