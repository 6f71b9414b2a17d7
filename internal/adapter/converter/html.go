package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"supportrag/internal/domain"
)

// HTMLConverter labels headings as section headers and paragraphs, list
// items, cells and preformatted blocks as text.
type HTMLConverter struct{}

func NewHTMLConverter() *HTMLConverter {
	return &HTMLConverter{}
}

var htmlBlockLabels = map[string]string{
	"h1": domain.LabelSectionHeader, "h2": domain.LabelSectionHeader, "h3": domain.LabelSectionHeader,
	"h4": domain.LabelSectionHeader, "h5": domain.LabelSectionHeader, "h6": domain.LabelSectionHeader,
	"p": domain.LabelText, "pre": domain.LabelText, "td": domain.LabelText, "th": domain.LabelText,
	"blockquote": domain.LabelText, "dt": domain.LabelText, "dd": domain.LabelText,
	"li": domain.LabelListItem,
}

var htmlInline = map[string]bool{
	"a": true, "abbr": true, "b": true, "code": true, "em": true, "i": true, "kbd": true,
	"mark": true, "small": true, "span": true, "strong": true, "sub": true, "sup": true, "u": true,
}

var htmlSkipped = map[string]bool{"script": true, "style": true, "noscript": true, "template": true, "head": true}

func (c *HTMLConverter) Convert(ctx context.Context, path string) (domain.ConvertedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ConvertedDocument{}, fmt.Errorf("%w: %v", domain.ErrConversion, err)
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return domain.ConvertedDocument{}, fmt.Errorf("%w: %v", domain.ErrConversion, err)
	}

	doc := domain.ConvertedDocument{
		SchemaName: schemaName,
		Version:    schemaVersion,
		Name:       strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Origin:     domain.DocumentOrigin{MimeType: "text/html", Filename: filepath.Base(path)},
	}
	if title := findTitle(root); title != "" {
		doc.Name = title
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if htmlSkipped[n.Data] {
				return
			}
			if label, ok := htmlBlockLabels[n.Data]; ok {
				if text := nodeText(n); text != "" {
					doc.Blocks = append(doc.Blocks, domain.Block{Label: label, Text: text})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return doc, nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return nodeText(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// nodeText returns the whitespace-collapsed text under n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && htmlSkipped[n.Data] {
			return
		}
		block := n.Type == html.ElementNode && !htmlInline[n.Data]
		if block {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
		if block {
			b.WriteByte(' ')
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
