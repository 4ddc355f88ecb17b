package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/amaumene/syllabus-merge/internal/docx"
	"github.com/amaumene/syllabus-merge/internal/domain"
	log "github.com/sirupsen/logrus"
)

const (
	contentTypeJSON   = "application/json"
	mergedFilename    = "merged.docx"
	mergeRoute        = "/merge-first-syllabus"
	defaultMaxRequest = 64 << 10
)

// Merger runs the merge pipeline for one request.
type Merger interface {
	Merge(ctx context.Context, req domain.MergeRequest) ([]byte, error)
}

type HTTPHandler struct {
	merger          Merger
	maxRequestBytes int64
	started         time.Time
	version         string
}

func NewHTTPHandler(merger Merger, maxRequestBytes int64, version string) *HTTPHandler {
	if maxRequestBytes <= 0 {
		maxRequestBytes = defaultMaxRequest
	}
	return &HTTPHandler{
		merger:          merger,
		maxRequestBytes: maxRequestBytes,
		started:         time.Now(),
		version:         version,
	}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST "+mergeRoute, h.handleMerge)
	mux.HandleFunc(mergeRoute, h.methodNotAllowed(http.MethodPost))
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("/health", h.methodNotAllowed(http.MethodGet))
	mux.HandleFunc("/", h.handleNotFound)
}

// Routes returns the full handler chain for the server.
func (h *HTTPHandler) Routes(allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return requestID(accessLog(recoverer(corsHandler(allowedOrigins)(mux))))
}

func (h *HTTPHandler) handleMerge(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseMergeRequest(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.merger.Merge(r.Context(), req)
	if err != nil {
		if r.Context().Err() != nil && errors.Is(err, context.Canceled) {
			log.WithFields(log.Fields{
				"component":  "handler",
				"request_id": RequestIDFrom(r.Context()),
				"url":        req.URL(),
			}).Info("client disconnected before merge completed")
			return
		}
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", docx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", mergedFilename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		log.WithFields(log.Fields{
			"component":  "handler",
			"request_id": RequestIDFrom(r.Context()),
			"error":      err,
		}).Error("failed to write merged document")
	}
}

func (h *HTTPHandler) parseMergeRequest(w http.ResponseWriter, r *http.Request) (domain.MergeRequest, error) {
	defer r.Body.Close()

	var req domain.MergeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return req, errRequestTooLarge
		case errors.Is(err, io.EOF):
			return req, fmt.Errorf("%w: request body is empty", domain.ErrInvalidRequest)
		default:
			return req, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
	}
	return req, nil
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"version":   h.version,
	})
}

func (h *HTTPHandler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ResponseError{
		Error:   "Not found",
		Message: "The requested endpoint does not exist",
	})
}

func (h *HTTPHandler) methodNotAllowed(allowed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allowed)
		writeJSON(w, http.StatusMethodNotAllowed, ResponseError{
			Error:   "Method not allowed",
			Message: fmt.Sprintf("Only %s requests are allowed", allowed),
		})
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)

	entry := log.WithFields(log.Fields{
		"component":  "handler",
		"request_id": RequestIDFrom(r.Context()),
		"status":     status,
		"error":      err,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("merge request failed")
	} else {
		entry.Warn("merge request rejected")
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithField("error", err).Error("failed to encode json response")
	}
}
