package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// ScriptsContaining returns the text of every <script> element in the document
// that contains marker, in document order.
func ScriptsContaining(doc *goquery.Document, marker string) []string {
	var out []string
	for _, script := range doc.Find("script").Nodes {
		text := GetText(script)
		if strings.Contains(text, marker) {
			out = append(out, text)
		}
	}
	return out
}

// FirstScriptContaining is ScriptsContaining but only returns the first match.
func FirstScriptContaining(doc *goquery.Document, marker string) (string, bool) {
	scripts := ScriptsContaining(doc, marker)
	if len(scripts) == 0 {
		return "", false
	}
	return scripts[0], true
}
