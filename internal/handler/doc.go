// Package handler implements HTTP request handlers.
//
// This package provides HTTP endpoints for:
// - POST /merge-first-syllabus: prepend a title to a remote .docx and return it
// - GET /health: health check endpoint
//
// Routes are wrapped with request ID, access log, panic recovery and CORS
// middleware. Errors are returned as JSON bodies of the form
// {"error": "...", "message": "..."}.
package handler
