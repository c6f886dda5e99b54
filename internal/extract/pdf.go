package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfExtractor concatenates the plain text of every page in order. Pages
// that cannot yield text (scanned images, broken font tables) contribute
// nothing rather than failing the whole document.
type pdfExtractor struct{}

func (pdfExtractor) Extract(data []byte, _ string) (Extracted, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Extracted{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}

	title := strings.TrimSpace(r.Trailer().Key("Info").Key("Title").Text())
	return checkLength(Extracted{Title: title, Text: buf.String()})
}
