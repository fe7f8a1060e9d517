package fetch

import (
	"bytes"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var (
	blankRunRe = regexp.MustCompile(`\n{3,}`)
	tagRe      = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptRe   = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
)

// Tags dropped before conversion: page chrome and active content.
var noiseTags = map[string]bool{
	"nav": true, "header": true, "footer": true, "aside": true,
	"script": true, "style": true, "noscript": true, "template": true,
	"iframe": true, "object": true, "embed": true, "svg": true,
	"form": true, "input": true, "button": true, "select": true,
}

// Class names that mark chrome on job boards.
var noiseClasses = map[string]bool{
	"nav": true, "navbar": true, "navigation": true, "sidebar": true,
	"menu": true, "footer": true, "header": true, "cookie": true,
	"cookie-banner": true, "consent": true, "ad": true, "advertisement": true,
	"social": true, "share": true, "related-jobs": true, "breadcrumb": true,
}

// Converted is the readable form of a page.
type Converted struct {
	Title    string
	Markdown string
}

// Converter turns job posting HTML into Markdown suitable for a prompt.
type Converter struct {
	md *md.Converter
}

// NewConverter creates a Converter with GitHub-flavored output.
func NewConverter() *Converter {
	c := md.NewConverter("", true, nil)
	c.Use(plugin.GitHubFlavored())
	return &Converter{md: c}
}

// Convert extracts the main content of page and renders it as Markdown.
func (c *Converter) Convert(page []byte) (*Converted, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	title := findTitle(doc)
	content := mainContent(doc)

	out, err := c.md.ConvertString(content)
	if err != nil {
		return nil, err
	}
	out = tidy(out)

	if title == "" {
		title = firstHeading(out)
	}
	return &Converted{Title: title, Markdown: out}, nil
}

func findTitle(doc *html.Node) string {
	if n := find(doc, func(n *html.Node) bool { return n.Data == "title" }); n != nil && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	return ""
}

// mainContent prefers semantic containers and falls back to a stripped body.
func mainContent(doc *html.Node) string {
	candidates := []func(*html.Node) bool{
		func(n *html.Node) bool { return n.Data == "main" },
		func(n *html.Node) bool { return attr(n, "role") == "main" },
		func(n *html.Node) bool { return n.Data == "article" },
	}
	for _, match := range candidates {
		if n := find(doc, match); n != nil {
			strip(n)
			return render(n)
		}
	}

	if body := find(doc, func(n *html.Node) bool { return n.Data == "body" }); body != nil {
		strip(body)
		return render(body)
	}
	strip(doc)
	return render(doc)
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// strip removes noise elements below n.
func strip(n *html.Node) {
	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node != n && isNoise(node) {
			doomed = append(doomed, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	for _, node := range doomed {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

func isNoise(n *html.Node) bool {
	if noiseTags[n.Data] {
		return true
	}
	for _, class := range strings.Fields(strings.ToLower(attr(n, "class"))) {
		if noiseClasses[class] {
			return true
		}
	}
	return false
}

func render(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func firstHeading(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		if t := strings.TrimSpace(line); strings.HasPrefix(t, "# ") {
			return strings.TrimSpace(t[2:])
		}
	}
	return ""
}

// stripTags is the fallback when conversion fails.
func stripTags(page []byte) string {
	s := scriptRe.ReplaceAllString(string(page), "")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return tidy(strings.Join(strings.Fields(s), " "))
}
