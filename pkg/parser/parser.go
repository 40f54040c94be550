// Package parser turns the semi-structured text found on listing items into
// typed fields. Both parsers are total: malformed input degrades to zero
// values instead of failing.
package parser

import (
	"strconv"
	"strings"

	"github.com/mrmechko/ifscraper/pkg/models"
)

// TagPrefix marks a caption segment holding the comma separated tag list
const TagPrefix = "image tagged in "

// Suffixes are the promotional trailers appended to generated captions.
// At most one is removed, and only from the end of the text.
var Suffixes = []string{
	" | made w/ Imgflip meme maker",
	" | made w/ Imgflip video-to-gif maker",
	" | made w/ Imgflip images-to-gif maker",
}

// ParseEngagement extracts upvote, view and comment counts from text such as
// "1,234 views, 56 upvotes, 3 comments". Each count is the integer token
// right before the first occurrence of its label, or 0.
func ParseEngagement(text string) models.Engagement {
	tokens := strings.Fields(strings.ReplaceAll(text, ",", ""))
	return models.Engagement{
		Upvotes:  countBefore(tokens, "upvotes"),
		Views:    countBefore(tokens, "views"),
		Comments: countBefore(tokens, "comments"),
	}
}

func countBefore(tokens []string, label string) int {
	for i, tok := range tokens {
		if tok != label {
			continue
		}
		if i == 0 {
			return 0
		}
		return nonNegative(tokens[i-1])
	}
	return 0
}

func nonNegative(tok string) int {
	if tok == "" {
		return 0
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0
	}
	return n
}

// ParseCaption splits alt text of the form
// "title | image tagged in a,b | line one; line two" into its parts.
//
// When hasTitle is set the first segment is the title. Remaining segments
// starting with TagPrefix fill Tags. Any other segment is split on ';' into
// Text; when several such segments exist the last one wins.
func ParseCaption(text string, hasTitle bool) models.Caption {
	caption := models.Caption{Tags: []string{}, Text: []string{}}
	text = StripSuffix(text)

	if !hasTitle && !strings.Contains(text, "|") {
		// Nothing was separated; only a bare tag list is recognised.
		if tags, ok := parseTags(strings.TrimSpace(text)); ok {
			caption.Tags = tags
		}
		return caption
	}

	segments := strings.Split(text, "|")
	if hasTitle {
		caption.Title = models.StringPtr(strings.TrimSpace(segments[0]))
		segments = segments[1:]
	}

	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if tags, ok := parseTags(segment); ok {
			caption.Tags = tags
			continue
		}
		caption.Text = strings.Split(segment, ";")
	}

	return caption
}

// StripSuffix removes a known promotional suffix from the end of text
func StripSuffix(text string) string {
	for _, suffix := range Suffixes {
		if strings.HasSuffix(text, suffix) {
			return strings.TrimSuffix(text, suffix)
		}
	}
	return text
}

func parseTags(segment string) ([]string, bool) {
	if !strings.HasPrefix(segment, TagPrefix) {
		return nil, false
	}
	tags := []string{}
	for _, tag := range strings.Split(strings.TrimPrefix(segment, TagPrefix), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, true
}
