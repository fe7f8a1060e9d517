package pipeline

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// droppedElements never survive sanitizing, children included.
var droppedElements = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Iframe: true,
	atom.Object: true,
	atom.Embed:  true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Base:   true,
	atom.Form:   true,
	atom.Video:  true,
	atom.Audio:  true,
	atom.Source: true,
}

// SanitizeFragment removes anything in an HTML fragment that would make the
// headless browser load a resource while printing:
//   - img elements unless src is an inline data:image URI
//   - script-capable and embedding elements
//   - on* event attributes, srcset and style attributes
//   - href values other than http, https, mailto, tel and in-page anchors
func SanitizeFragment(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	sanitizeNode(container)

	var buf strings.Builder
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func sanitizeNode(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && shouldDrop(c) {
			n.RemoveChild(c)
		} else {
			if c.Type == html.ElementNode {
				c.Attr = filterAttrs(c.Attr)
			}
			sanitizeNode(c)
		}
		c = next
	}
}

func shouldDrop(n *html.Node) bool {
	if droppedElements[n.DataAtom] {
		return true
	}
	if n.DataAtom == atom.Img {
		return !strings.HasPrefix(strings.ToLower(attr(n, "src")), "data:image/")
	}
	return false
}

func filterAttrs(attrs []html.Attribute) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		switch {
		case strings.HasPrefix(key, "on"), key == "srcset", key == "style":
			continue
		case key == "href" && !isSafeHref(a.Val):
			continue
		}
		out = append(out, a)
	}
	return out
}

func isSafeHref(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, prefix := range []string{"http://", "https://", "mailto:", "tel:", "#"} {
		if strings.HasPrefix(v, prefix) {
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
