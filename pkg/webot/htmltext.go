package webot

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// FlattenHTML converts reply markup into readable plain text, dropping
// scripts, styles, and other noise while keeping block structure as line
// breaks. Sites that render answers as rich HTML go through this before
// the text reaches the watcher or the result file.
func FlattenHTML(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var builder strings.Builder
	flattenNode(doc, &builder)

	text := blankLines.ReplaceAllString(builder.String(), "\n\n")
	return strings.TrimSpace(text), nil
}

// flattenNode recursively collects text content, inserting separators
// around block-level elements.
func flattenNode(n *html.Node, builder *strings.Builder) {
	if n.Type == html.CommentNode {
		return
	}

	if n.Type == html.ElementNode {
		tag := strings.ToLower(n.Data)
		if isNoiseElement(tag) {
			return
		}
		if tag == "br" {
			builder.WriteString("\n")
			return
		}
		if tag == "li" {
			builder.WriteString("\n- ")
		} else if isTextBlockElement(tag) {
			builder.WriteString("\n")
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			flattenNode(child, builder)
		}

		if isTextBlockElement(tag) || tag == "li" {
			builder.WriteString("\n")
		}
		return
	}

	if n.Type == html.TextNode {
		text := collapseSpace(n.Data)
		if text != "" {
			// Keep words from previous inline siblings separated.
			if builder.Len() > 0 && !endsWithSeparator(builder.String()) {
				builder.WriteString(" ")
			}
			builder.WriteString(text)
		}
		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		flattenNode(child, builder)
	}
}

// isNoiseElement identifies elements whose content never belongs in the
// extracted text.
func isNoiseElement(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "iframe", "svg", "head", "template", "button":
		return true
	}
	return false
}

// isTextBlockElement identifies elements that break the text flow.
func isTextBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "pre", "blockquote",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "table", "tr", "hr":
		return true
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func endsWithSeparator(s string) bool {
	return strings.HasSuffix(s, "\n") || strings.HasSuffix(s, " ") || strings.HasSuffix(s, "- ")
}

// looksLikeHTML is a cheap probe used by variants whose extraction path
// may return either plain text or markup depending on the page build.
func looksLikeHTML(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "<") && strings.Contains(s, ">")
}
