package extract

import (
	"errors"
	"strings"
	"testing"
)

func longParagraph() string {
	return strings.Repeat("The quick brown fox jumps over the lazy dog. ", 5)
}

func TestHeuristicArticleElement(t *testing.T) {
	html := `<html><body>
		<h1>Launch Notes</h1>
		<div class="sidebar"><p>Ignore me entirely, sidebar chatter.</p></div>
		<article>
			<p>` + longParagraph() + `</p>
			<h2>Details</h2>
			<p>Second paragraph with more body text to extract.</p>
		</article>
	</body></html>`

	ex, err := ForKind(KindArticle, StrategyHeuristic)
	if err != nil {
		t.Fatalf("ForKind: %v", err)
	}
	got, err := ex.Extract([]byte(html), "https://example.com/post")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Title != "Launch Notes" {
		t.Errorf("Title = %q, want %q", got.Title, "Launch Notes")
	}
	if strings.Contains(got.Text, "sidebar chatter") {
		t.Errorf("text includes content outside <article>: %q", got.Text)
	}
	if !strings.Contains(got.Text, "Details") || !strings.Contains(got.Text, "Second paragraph") {
		t.Errorf("text missing article blocks: %q", got.Text)
	}
	if !strings.Contains(got.Text, "\n") {
		t.Errorf("blocks not newline separated: %q", got.Text)
	}
}

func TestHeuristicClassFallback(t *testing.T) {
	html := `<html><body>
		<h1>Fallback</h1>
		<div class="nav"><p>navigation links</p></div>
		<div class="post-body">
			<p>` + longParagraph() + `</p>
		</div>
	</body></html>`

	got, err := heuristicHTML{}.Extract([]byte(html), "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strings.Contains(got.Text, "navigation links") {
		t.Errorf("picked wrong container: %q", got.Text)
	}
	if !strings.Contains(got.Text, "quick brown fox") {
		t.Errorf("missing content from class container: %q", got.Text)
	}
}

func TestHeuristicStripsScriptAndStyle(t *testing.T) {
	html := `<html><body><article>
		<script>var tracking = "beacon";</script>
		<style>p { color: red }</style>
		<p>` + longParagraph() + `</p>
	</article></body></html>`

	got, err := heuristicHTML{}.Extract([]byte(html), "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strings.Contains(got.Text, "beacon") || strings.Contains(got.Text, "color: red") {
		t.Errorf("script/style text leaked: %q", got.Text)
	}
}

func TestHeuristicRejectsShortContent(t *testing.T) {
	html := `<h1>Title</h1><article><p>Short.</p></article>`

	_, err := heuristicHTML{}.Extract([]byte(html), "")
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("err = %v, want ErrEmptyContent", err)
	}
}

func TestHeuristicTitleFallsBackToTitleTag(t *testing.T) {
	html := `<html><head><title>From Head</title></head><body><article>
		<p>` + longParagraph() + `</p>
	</article></body></html>`

	got, err := heuristicHTML{}.Extract([]byte(html), "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Title != "From Head" {
		t.Errorf("Title = %q, want %q", got.Title, "From Head")
	}
}

func TestPDFMalformed(t *testing.T) {
	_, err := pdfExtractor{}.Extract([]byte("not a pdf at all"), "")
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"article", KindArticle, false},
		{"pdf", KindPDF, false},
		{"database", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("ParseKind(%q) err = %v, want ErrMalformedInput", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestForKindUnknownStrategy(t *testing.T) {
	if _, err := ForKind(KindArticle, "llm"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	if _, err := ForKind(Kind("database"), ""); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}
