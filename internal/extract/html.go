package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// contentClass matches class attributes the site uses on its main article
// container when no <article> element is present.
var contentClass = regexp.MustCompile(`(?i)\b(content|article|post)\b`)

// heuristicHTML extracts article text by locating the main content container
// in the DOM: the first <article> element, falling back to a <div> whose
// class mentions content, article or post, falling back to <body>.
type heuristicHTML struct{}

func (heuristicHTML) Extract(data []byte, _ string) (Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return Extracted{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	container := doc.Find("article").First()
	if container.Length() == 0 {
		doc.Find("div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if class, ok := s.Attr("class"); ok && contentClass.MatchString(class) {
				container = s
				return false
			}
			return true
		})
	}
	if container.Length() == 0 {
		container = doc.Find("body").First()
	}
	if container.Length() == 0 {
		return Extracted{}, ErrEmptyContent
	}

	container.Find("script, style, noscript").Remove()

	var blocks []string
	container.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	text := strings.Join(blocks, "\n")
	if text == "" {
		// No block elements at all; take the container's flat text.
		text = strings.TrimSpace(container.Text())
	}

	return checkLength(Extracted{Title: title, Text: text})
}

// readabilityHTML extracts article text with the readability content
// scoring algorithm. It handles pages whose markup does not follow the
// container conventions the heuristic expects.
type readabilityHTML struct{}

func (readabilityHTML) Extract(data []byte, srcURL string) (Extracted, error) {
	pageURL, err := url.Parse(srcURL)
	if err != nil {
		pageURL = &url.URL{}
	}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return Extracted{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	return checkLength(Extracted{
		Title: strings.TrimSpace(article.Title),
		Text:  strings.TrimSpace(article.TextContent),
	})
}
