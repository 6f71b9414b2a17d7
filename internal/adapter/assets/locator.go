package assets

import (
	"io"
	"net/url"
	"path"
	"strings"

	"supportrag/internal/adapter/crawler"
)

// Locate returns the absolute URLs of every anchor on the page whose target
// path ends with ext (case-insensitive), in document order without repeats.
func Locate(r io.Reader, base *url.URL, ext string) ([]string, error) {
	links, err := crawler.ExtractLinks(r, base)
	if err != nil {
		return nil, err
	}

	ext = strings.ToLower(ext)
	seen := make(map[string]struct{})
	var out []string
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(u.Path), ext) {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out, nil
}

// LocalName derives the file name an asset is stored under: the last path
// segment of its URL.
func LocalName(assetURL string) (string, bool) {
	u, err := url.Parse(assetURL)
	if err != nil {
		return "", false
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", false
	}
	return name, true
}
