package page

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoHead is returned when the shell has no element to carry the configuration.
var ErrNoHead = errors.New("application shell has no head or body element")

// DefaultShell is served when no application shell is configured.
const DefaultShell = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>lingo</title></head>
<body><div id="app"></div></body>
</html>`

// Render writes shell with userConfig embedded in a script element whose id is
// UserConfigElementID. An existing element with that id is replaced. An empty
// userConfig leaves no element behind.
func Render(w io.Writer, shell io.Reader, userConfig string) error {
	root, err := html.Parse(shell)
	if err != nil {
		return fmt.Errorf("could not parse application shell: %w", err)
	}

	if existing := findByID(root, UserConfigElementID); existing != nil && existing.Parent != nil {
		existing.Parent.RemoveChild(existing)
	}

	if userConfig != "" {
		parent := findElement(root, atom.Head)
		if parent == nil {
			parent = findElement(root, atom.Body)
		}
		if parent == nil {
			return ErrNoHead
		}

		parent.AppendChild(configNode(userConfig))
	}

	return html.Render(w, root)
}

func configNode(userConfig string) *html.Node {
	script := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
		Attr: []html.Attribute{
			{Key: "id", Val: UserConfigElementID},
			{Key: "type", Val: "application/json"},
		},
	}

	// Script content is raw text; only a closing tag could break out of it.
	safe := strings.ReplaceAll(userConfig, "</", `<\/`)
	script.AppendChild(&html.Node{Type: html.TextNode, Data: safe})
	return script
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
