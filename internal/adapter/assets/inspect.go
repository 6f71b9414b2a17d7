package assets

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

var (
	elementKeywords   = []string{"pdf", "download", "document"}
	containerKeywords = []string{"pdf", "document", "viewer"}
	scriptKeywords    = []string{"pdf", "document"}
)

const scriptPreviewRunes = 200

// Element describes one HTML element that may lead to a document.
type Element struct {
	Tag     string `json:"tag"`
	Text    string `json:"text,omitempty"`
	ID      string `json:"id,omitempty"`
	Classes string `json:"classes,omitempty"`
	// Link is the href or src, falling back to onclick for buttons.
	Link string `json:"link,omitempty"`
}

// PageInspection lists the places on a page where documents may hide when
// they are not plain links: labelled anchors and buttons, embedded frames,
// viewer containers and inline scripts.
type PageInspection struct {
	Elements   []Element `json:"elements"`
	Iframes    []Element `json:"iframes"`
	Containers []Element `json:"containers"`
	Scripts    []string  `json:"scripts"`
}

// Inspect scans an HTML page for document-related elements.
func Inspect(r io.Reader) (PageInspection, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return PageInspection{}, err
	}

	var out PageInspection
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "button":
				text := elementText(n)
				if containsAny(strings.ToLower(text), elementKeywords) {
					link := attrValue(n, "href")
					if link == "" {
						link = attrValue(n, "onclick")
					}
					out.Elements = append(out.Elements, describe(n, text, link))
				}
			case "iframe":
				out.Iframes = append(out.Iframes, describe(n, "", attrValue(n, "src")))
			case "div":
				if containsAny(strings.ToLower(attrValue(n, "class")), containerKeywords) {
					out.Containers = append(out.Containers, describe(n, "", ""))
				}
			case "script":
				if src := inlineScript(n); containsAny(strings.ToLower(src), scriptKeywords) {
					out.Scripts = append(out.Scripts, preview(src, scriptPreviewRunes))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func describe(n *html.Node, text, link string) Element {
	return Element{
		Tag:     n.Data,
		Text:    text,
		ID:      attrValue(n, "id"),
		Classes: attrValue(n, "class"),
		Link:    link,
	}
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func elementText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func inlineScript(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// preview cuts s to at most n runes.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
