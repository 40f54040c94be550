package media

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var schemePrefix = regexp.MustCompile(`^https?://`)

// DerivePath maps a media URL to its file under <outputRoot>/img. The
// scheme is dropped and every '/' becomes '_', so
// "https://i.imgflip.com/4/abc.jpg" lands at "<root>/img/i.imgflip.com_4_abc.jpg".
// Distinct URLs can collide; no attempt is made to detect that.
func DerivePath(mediaURL, outputRoot string) string {
	trimmed := schemePrefix.ReplaceAllString(mediaURL, "")
	trimmed = strings.ReplaceAll(trimmed, "/", "_")
	return filepath.Join(ImageDir(outputRoot), trimmed)
}

// ImageDir is the directory media files are written to
func ImageDir(outputRoot string) string {
	return filepath.Join(outputRoot, "img")
}

// Extension returns the extension of the last path segment of mediaURL,
// without the dot and with its case preserved. Query strings and fragments
// are ignored.
func Extension(mediaURL string) string {
	p := mediaURL
	if u, err := url.Parse(mediaURL); err == nil {
		p = u.Path
	}
	last := p[strings.LastIndex(p, "/")+1:]
	dot := strings.LastIndex(last, ".")
	if dot < 0 {
		return ""
	}
	return last[dot+1:]
}
