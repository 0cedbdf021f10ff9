// Package page reads and writes the user configuration embedded in the application shell.
package page

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// UserConfigElementID is the id of the element carrying the user configuration.
const UserConfigElementID = "user_config_json"

// ReadUserConfig returns the text content of the user configuration element in doc.
// The boolean is false when the element is missing or has no text.
func ReadUserConfig(doc io.Reader) (string, bool) {
	root, err := html.Parse(doc)
	if err != nil {
		return "", false
	}

	node := findByID(root, UserConfigElementID)
	if node == nil {
		return "", false
	}

	content := textContent(node)
	if content == "" {
		return "", false
	}
	return content, true
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return sb.String()
}
