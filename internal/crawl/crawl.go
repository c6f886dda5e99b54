// Package crawl discovers article URLs on a site by breadth-first
// traversal starting from a seed page.
package crawl

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/communique/acebot/internal/log"
)

// yearSegment matches dated archive paths like /2024/03/slug.
var yearSegment = regexp.MustCompile(`/20\d\d(/|$)`)

// articleWords are path substrings that mark a URL as likely article
// content when no dated segment is present.
var articleWords = []string{"article", "post", "blog"}

// Fetcher retrieves the raw bytes of a page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// session holds the mutable state of one Discover invocation. It is never
// shared across invocations.
type session struct {
	visited    map[string]bool
	queue      []string
	discovered []string
}

// Crawler walks pages of a single site and collects article URLs.
type Crawler struct {
	fetcher Fetcher
	limiter *rate.Limiter
	logger  log.Logger
}

// New builds a Crawler. limiter paces page fetches so the crawl never
// hammers the source server.
func New(fetcher Fetcher, limiter *rate.Limiter, logger log.Logger) *Crawler {
	return &Crawler{
		fetcher: fetcher,
		limiter: limiter,
		logger:  logger,
	}
}

// Discover traverses breadth-first from seedURL and returns article URLs
// in discovery order. Only same-host links whose path looks like article
// content enter the frontier. Discovery stops when maxLinks URLs have been
// found or the frontier empties. Pages that fail to fetch or parse are
// logged and skipped; Discover fails only when the context is cancelled
// or seedURL is invalid.
func (c *Crawler) Discover(ctx context.Context, seedURL string, maxLinks int) ([]string, error) {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", seedURL, err)
	}
	if seed.Host == "" {
		return nil, fmt.Errorf("seed URL %q has no host", seedURL)
	}
	if maxLinks < 1 {
		return nil, fmt.Errorf("maxLinks must be at least 1, got %d", maxLinks)
	}

	s := &session{
		visited: map[string]bool{seedURL: true},
		queue:   []string{seedURL},
	}

	for len(s.queue) > 0 && len(s.discovered) < maxLinks {
		current := s.queue[0]
		s.queue = s.queue[1:]

		if err := c.limiter.Wait(ctx); err != nil {
			return s.discovered, err
		}

		body, err := c.fetcher.Fetch(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return s.discovered, ctx.Err()
			}
			c.logger.Warn("page fetch failed, skipping", "url", current, "error", err)
			continue
		}

		links, err := articleLinks(seed, current, body)
		if err != nil {
			c.logger.Warn("page parse failed, skipping", "url", current, "error", err)
			continue
		}

		for _, link := range links {
			if s.visited[link] {
				continue
			}
			s.visited[link] = true
			s.discovered = append(s.discovered, link)
			if len(s.discovered) >= maxLinks {
				break
			}
			s.queue = append(s.queue, link)
		}
	}

	c.logger.Info("crawl finished",
		"seed", seedURL, "visited", len(s.visited), "articles", len(s.discovered))
	return s.discovered, nil
}

// maxLinksPerPage keeps a single pathological page from flooding the
// frontier.
const maxLinksPerPage = 200

// articleLinks extracts same-host article links from a page, resolved
// against the page URL and with fragments stripped.
func articleLinks(seed *url.URL, pageURL string, body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		if abs.Host != seed.Host {
			return true
		}
		abs.Fragment = ""
		if !isArticlePath(abs.Path) {
			return true
		}
		links = append(links, abs.String())
		return len(links) < maxLinksPerPage
	})
	return links, nil
}

func isArticlePath(path string) bool {
	lower := strings.ToLower(path)
	if yearSegment.MatchString(lower) {
		return true
	}
	for _, w := range articleWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
