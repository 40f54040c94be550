// Package extract pulls item blocks and the pagination link out of a listing
// page using the versioned CSS template from config.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mrmechko/ifscraper/pkg/config"
	errs "github.com/mrmechko/ifscraper/pkg/errors"
)

// ErrNoMedia is returned for a block without a usable media element
var ErrNoMedia = errs.New(errs.ErrorTypeExtraction, "item block has no media element")

// Template is the set of selectors describing one listing item
type Template struct {
	Version    string
	Item       string
	Media      string
	Title      string
	Engagement string
	Author     string
	Next       string
	RelNext    bool
}

// TemplateFromConfig converts the template config section
func TemplateFromConfig(cfg config.TemplateConfig) Template {
	return Template{
		Version:    cfg.Version,
		Item:       cfg.Item,
		Media:      cfg.Media,
		Title:      cfg.Title,
		Engagement: cfg.Engagement,
		Author:     cfg.Author,
		Next:       cfg.Next,
		RelNext:    cfg.RelNext,
	}
}

// RawItem is one item block before field parsing
type RawItem struct {
	MediaURL       string
	Alt            string
	HasTitle       bool
	EngagementText string
	Author         string
}

// Blocks returns every item block of the page in document order
func (t Template) Blocks(doc *goquery.Document) []*goquery.Selection {
	var blocks []*goquery.Selection
	doc.Find(t.Item).Each(func(_ int, s *goquery.Selection) {
		blocks = append(blocks, s)
	})
	return blocks
}

// Block extracts the raw fields of one item block. Relative and
// protocol-relative media URLs are resolved against base. A panic inside
// the selector handling is turned into an extraction error so a single
// malformed block never takes the run down.
func (t Template) Block(block *goquery.Selection, base *url.URL) (raw RawItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.New(errs.ErrorTypeExtraction, fmt.Sprintf("panic extracting item block: %v", r))
		}
	}()

	img := block.Find(t.Media).First()
	if img.Length() == 0 {
		return RawItem{}, ErrNoMedia
	}

	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" {
		src = strings.TrimSpace(img.AttrOr("data-src", ""))
	}
	if src == "" {
		return RawItem{}, ErrNoMedia
	}

	mediaURL, err := resolve(base, src)
	if err != nil {
		return RawItem{}, errs.Wrap(errs.ErrorTypeExtraction, err, "invalid media url")
	}

	raw = RawItem{
		MediaURL: mediaURL,
		Alt:      img.AttrOr("alt", ""),
	}
	if t.Title != "" {
		raw.HasTitle = block.Find(t.Title).Length() > 0
	}
	if t.Engagement != "" {
		raw.EngagementText = strings.TrimSpace(block.Find(t.Engagement).First().Text())
	}
	if t.Author != "" {
		raw.Author = strings.TrimSpace(block.Find(t.Author).First().Text())
	}

	return raw, nil
}

// NextPage returns the absolute URL of the next listing page, or "" at the
// end of the listing. Only the template's Next selector is consulted, plus
// rel="next" links when RelNext is set.
func (t Template) NextPage(doc *goquery.Document, base *url.URL) string {
	var candidates []*goquery.Selection
	if t.Next != "" {
		candidates = append(candidates, doc.Find(t.Next))
	}
	if t.RelNext {
		candidates = append(candidates, doc.Find(`a[rel="next"], link[rel="next"]`))
	}

	for _, sel := range candidates {
		var next string
		sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href := strings.TrimSpace(s.AttrOr("href", ""))
			if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
				return true
			}
			abs, err := resolve(base, href)
			if err != nil {
				return true
			}
			next = abs
			return false
		})
		if next != "" {
			return next
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String(), nil
}
