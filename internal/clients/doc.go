// Package clients provides adapters for external services.
//
// SourceClient retrieves syllabus documents from the URL a caller supplies.
// Every fetch is bounded by a timeout and a size cap, and failures are
// reported as domain.SourceFetchError.
package clients
