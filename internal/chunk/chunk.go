// Package chunk splits plain text into overlapping fixed-size windows
// suitable for embedding.
//
// Two variants of the same sliding-window algorithm are provided: Words
// (used for crawled articles, default 500/50) and Runes (used for uploaded
// documents, default 1000/200). Both are deterministic: identical input and
// parameters always produce identical chunk sequences, which keeps
// re-indexing idempotent.
package chunk

import (
	"errors"
	"strings"
)

// DefaultMinLength is the character floor below which a produced window is
// discarded. Short trailing remainders are dropped, never padded.
const DefaultMinLength = 100

// ErrInvalidOverlap indicates overlap >= size, which would make the window
// stride non-positive.
var ErrInvalidOverlap = errors.New("chunk overlap must be smaller than chunk size")

// Words splits text on whitespace and produces windows of size words,
// advancing by size-overlap words each step. Windows whose character length
// is below minLen are dropped. minLen 0 keeps every window.
func Words(text string, size, overlap, minLen int) ([]string, error) {
	if err := check(size, overlap); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	stride := size - overlap

	var chunks []string
	for i := 0; i < len(words); i += stride {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		window := strings.Join(words[i:end], " ")
		if len(window) >= minLen {
			chunks = append(chunks, window)
		}
	}
	return chunks, nil
}

// Runes produces windows of size runes, advancing by size-overlap runes each
// step. Operating on runes rather than bytes keeps multi-byte characters
// intact at window boundaries. Windows shorter than minLen runes are dropped.
func Runes(text string, size, overlap, minLen int) ([]string, error) {
	if err := check(size, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	stride := size - overlap

	var chunks []string
	for i := 0; i < len(runes); i += stride {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		if end-i >= minLen {
			chunks = append(chunks, string(runes[i:end]))
		}
	}
	return chunks, nil
}

func check(size, overlap int) error {
	if size < 1 {
		return ErrInvalidOverlap
	}
	if overlap < 0 || overlap >= size {
		return ErrInvalidOverlap
	}
	return nil
}
