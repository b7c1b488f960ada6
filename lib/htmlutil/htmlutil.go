// Package htmlutil extracts plain text from fragments of upstream
// markup: tags are flattened, entities decoded and whitespace collapsed.
package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// GetText concatenates every text node under the given node.
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

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		switch {
		case unicode.IsPrint(c):
			newStr.WriteRune(c)
		case unicode.IsSpace(c):
			// tabs and newlines separate words, keep the boundary
			newStr.WriteRune(' ')
		}
	}
	return newStr.String()
}

// Collapse strips non-printable runes, trims the fragment and squashes
// runs of inner whitespace down to one space.
func Collapse(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// Text reduces a fragment of markup to its visible text. Fragments
// without tags or entities pass through with only whitespace cleanup.
// The html parser is lenient, so malformed markup still yields whatever
// text it carries rather than an error.
func Text(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return Collapse(fragment)
	}
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return Collapse(fragment)
	}
	return Collapse(GetText(root))
}
