// Package service contains the merge pipeline.
//
// MergeService validates a request, fetches the source document, checks that
// the bytes are a zip package, prepends the title paragraph and serializes
// the result. Every failure is one of the domain error types so the handler
// can map it to a status code.
package service
