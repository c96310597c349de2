// Package extract provides the text-extraction capability the parse stage
// consumes.
package extract

import "context"

// Document is an uploaded document handle plus its raw bytes.
//
// ID must be stable for the uploaded document: the pipeline caches
// extraction results per document ID.
type Document struct {
	// ID uniquely identifies the uploaded document within a session.
	ID string

	// Name is the original file name (informational).
	Name string

	// Data holds the raw document bytes.
	Data []byte
}

// Extractor defines the text-extraction capability.
//
// Implementations convert an uploaded document into plain text.
// PDFExtractor handles PDF input; MockExtractor supports tests.
type Extractor interface {
	// Extract returns the document's plain text or an error.
	Extract(ctx context.Context, doc Document) (string, error)
}
