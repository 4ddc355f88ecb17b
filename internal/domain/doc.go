// Package domain defines the request model, the merge error taxonomy and the
// interfaces the merge pipeline depends on.
package domain
