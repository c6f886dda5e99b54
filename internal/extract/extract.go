// Package extract converts raw document bytes into plain text.
//
// Extraction strategies are pluggable per content kind: HTML articles can be
// parsed by a DOM heuristic (matching the structure of the Communiqué site)
// or by a readability algorithm, and PDFs by per-page text extraction. New
// site structures are added as strategies without touching the ingest
// pipeline.
package extract

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the content kind of a source document.
type Kind string

const (
	// KindArticle is an HTML article page.
	KindArticle Kind = "article"

	// KindPDF is a PDF document.
	KindPDF Kind = "pdf"
)

// ParseKind validates a source_type string from the API surface.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindArticle, KindPDF:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: unknown source type %q", ErrMalformedInput, s)
}

// MinContentLength is the hard floor for extracted text. Documents whose
// trimmed text is shorter pollute the index with near-empty chunks, so they
// are rejected before chunking.
const MinContentLength = 100

var (
	// ErrEmptyContent indicates the document yielded less than
	// MinContentLength characters of trimmed text.
	ErrEmptyContent = errors.New("extracted content below minimum length")

	// ErrMalformedInput indicates the bytes could not be parsed as the
	// declared kind.
	ErrMalformedInput = errors.New("malformed input")
)

// Extracted is the result of a successful extraction.
type Extracted struct {
	Title string
	Text  string
}

// Extractor converts raw bytes of one content kind into plain text.
// srcURL is the document's source URL; strategies that resolve relative
// references use it, others ignore it.
type Extractor interface {
	Extract(data []byte, srcURL string) (Extracted, error)
}

// Strategy names for the article kind.
const (
	StrategyHeuristic   = "heuristic"
	StrategyReadability = "readability"
)

// ForKind returns the extractor for a content kind. strategy selects the
// article extraction heuristic and is ignored for PDFs.
func ForKind(kind Kind, strategy string) (Extractor, error) {
	switch kind {
	case KindPDF:
		return pdfExtractor{}, nil
	case KindArticle:
		switch strategy {
		case StrategyReadability:
			return readabilityHTML{}, nil
		case StrategyHeuristic, "":
			return heuristicHTML{}, nil
		default:
			return nil, fmt.Errorf("unknown article extraction strategy %q", strategy)
		}
	}
	return nil, fmt.Errorf("no extractor for kind %q", kind)
}

// checkLength enforces the MinContentLength floor shared by all strategies.
func checkLength(e Extracted) (Extracted, error) {
	if len(strings.TrimSpace(e.Text)) < MinContentLength {
		return Extracted{}, ErrEmptyContent
	}
	return e, nil
}
