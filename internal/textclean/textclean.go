// Package textclean turns model output that arrives as HTML or fenced
// markdown into plain text with one item per line.
package textclean

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainLines returns s unchanged unless it contains markup. Markdown code
// fences are dropped and HTML is reduced to its text, with block elements and
// <br> emitted as line breaks so list items stay separate.
func PlainLines(s string) string {
	if strings.Contains(s, "```") {
		s = stripFences(s)
	}
	if !strings.Contains(s, "<") {
		return s
	}
	text, err := HTMLToLines(s)
	if err != nil {
		return s
	}
	return text
}

func stripFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// HTMLToLines parses an HTML fragment and extracts its visible text.
func HTMLToLines(htmlBody string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		} else if n.Type == html.ElementNode &&
			(n.Data == "script" || n.Data == "style" || n.Data == "head" || n.Data == "title") {
			return
		} else if n.Type == html.ElementNode && n.Data == "br" {
			sb.WriteString("\n")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}

		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "pre":
				sb.WriteString("\n")
			}
		}
	}
	extract(doc)

	lines := strings.Split(sb.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}
