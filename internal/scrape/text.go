package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ppiankov/infobox2wd/internal/model"
)

// cellContent is the readable content of an infobox value cell
type cellContent struct {
	text    string
	links   []model.Link
	notes   []string // Footnote anchors, e.g. "cite_note-census-3"
	handles []any
}

type linkBuilder struct {
	title string
	text  strings.Builder
	after strings.Builder
}

// readCell walks a value cell collecting plain text, wiki links with the
// text that follows each of them, footnote anchors and images
func readCell(cell *goquery.Selection, base *url.URL) cellContent {
	var (
		buf      strings.Builder
		content  cellContent
		builders []*linkBuilder
		current  *linkBuilder
	)

	var walk func(n *html.Node, inLink *linkBuilder)
	walk = func(n *html.Node, inLink *linkBuilder) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			if inLink != nil {
				inLink.text.WriteString(n.Data)
			} else if current != nil {
				current.after.WriteString(n.Data)
			}
			return
		case html.ElementNode:
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c, inLink)
			}
			return
		}

		switch {
		case n.Data == "style" || n.Data == "script":
			return
		case hasClass(n, "noprint") || hasClass(n, "mw-editsection") || hasClass(n, "sortkey"):
			return
		case n.Data == "sup" && hasClass(n, "reference"):
			content.notes = append(content.notes, noteAnchors(n)...)
			return
		case n.Data == "img":
			content.handles = append(content.handles, n)
			return
		case n.Data == "br":
			buf.WriteString(" ")
			return
		case n.Data == "a" && inLink == nil:
			if title, ok := wikiTitle(n, base); ok {
				link := &linkBuilder{title: title}
				builders = append(builders, link)
				current = link
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c, link)
				}
				return
			}
		}

		block := n.Data == "li" || n.Data == "p" || n.Data == "div"
		if block {
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inLink)
		}
		if block {
			buf.WriteString(" ")
		}
	}

	for _, n := range cell.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, nil)
		}
	}

	content.text = collapse(buf.String())
	for _, l := range builders {
		content.links = append(content.links, model.Link{
			Title: l.title,
			Text:  collapse(l.text.String()),
			After: collapse(l.after.String()),
		})
	}
	return content
}

// wikiTitle returns the article title of an internal link to the main
// namespace
func wikiTitle(n *html.Node, base *url.URL) (string, bool) {
	href := attr(n, "href")
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	target, err := base.Parse(href)
	if err != nil || target.Host != base.Host || !strings.HasPrefix(target.Path, "/wiki/") {
		return "", false
	}

	title := attr(n, "title")
	if title == "" {
		title = strings.ReplaceAll(strings.TrimPrefix(target.Path, "/wiki/"), "_", " ")
	}
	if title == "" || strings.Contains(title, ":") && namespaced(title) {
		return "", false
	}
	return title, true
}

// namespaced reports whether a title lives outside the main namespace
func namespaced(title string) bool {
	prefix, _, _ := strings.Cut(title, ":")
	switch strings.ToLower(prefix) {
	case "file", "image", "category", "help", "template", "wikipedia", "portal", "special", "talk",
		"файл", "категория", "шаблон", "википедия", "портал", "служебная", "справка":
		return true
	}
	return false
}

func noteAnchors(n *html.Node) []string {
	var ids []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); strings.HasPrefix(href, "#") {
				ids = append(ids, strings.TrimPrefix(href, "#"))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return ids
}

// plainText is the text of a selection without footnote markers
func plainText(s *goquery.Selection) string {
	clone := s.Clone()
	clone.Find("sup.reference, style, .noprint").Remove()
	return clone.Text()
}

func hasClass(n *html.Node, className string) bool {
	for _, class := range strings.Fields(attr(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// collapse normalizes non-breaking and thin spaces and squeezes whitespace
func collapse(s string) string {
	s = strings.NewReplacer("\u00a0", " ", "\u2009", " ", "\u202f", " ", "\u2007", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
