// Package report defines the boundary with the downstream report assembler:
// the component that turns an accepted classification result into formatted
// human-readable content (advisory text, tables, PDF files).
//
// Assembly itself lives outside this module; the inference core only
// guarantees the shape of what it hands over. Implementations must respect
// the suppression rule: a rejected Result carries no class information and
// the assembled document must not invent any.
package report

import (
	"context"

	"github.com/leafscan/fusionnet/inference"
)

// Document is an assembled report.
type Document struct {
	// Filename is a suggested name for the document.
	Filename string
	// ContentType is the MIME type of Content.
	ContentType string
	// Content is the rendered document.
	Content []byte
}

// Assembler turns a classification result into a Document.
type Assembler interface {
	Assemble(ctx context.Context, result *inference.Result) (*Document, error)
}
