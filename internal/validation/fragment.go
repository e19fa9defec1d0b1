package validation

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FragmentIssue is one problem found in a rendered block fragment.
type FragmentIssue struct {
	Tag     string
	Message string
}

func (i FragmentIssue) String() string {
	if i.Tag == "" {
		return i.Message
	}
	return fmt.Sprintf("<%s>: %s", i.Tag, i.Message)
}

// InspectFragment parses a rendered block fragment and reports
// structural problems: unbalanced tags and document-level elements
// (html/head/body) that must not appear inside a page body. Inspection
// is advisory: the renderer logs issues in development builds and
// never fails a block over them.
func InspectFragment(fragment []byte) []FragmentIssue {
	if len(bytes.TrimSpace(fragment)) == 0 {
		return nil
	}

	var issues []FragmentIssue

	ctxNode := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), ctxNode)
	if err != nil {
		return []FragmentIssue{{Message: fmt.Sprintf("fragment does not parse: %v", err)}}
	}

	for _, n := range nodes {
		walkFragment(n, &issues)
	}

	return append(issues, scanRawTags(fragment)...)
}

func walkFragment(n *html.Node, issues *[]FragmentIssue) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Script {
		*issues = append(*issues, FragmentIssue{
			Tag:     n.Data,
			Message: "script element emitted by a block implementation",
		})
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkFragment(c, issues)
	}
}

// scanRawTags tokenizes the raw fragment. The fragment parser drops
// document-level tags and auto-closes unbalanced ones, so both checks
// have to run against the raw token stream.
func scanRawTags(fragment []byte) []FragmentIssue {
	z := html.NewTokenizer(bytes.NewReader(fragment))
	var issues []FragmentIssue
	var stack []string
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if len(stack) > 0 {
				issues = append(issues, FragmentIssue{
					Tag:     stack[len(stack)-1],
					Message: "unclosed tag",
				})
			}
			return issues
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch strings.ToLower(tag) {
			case "html", "head", "body":
				issues = append(issues, FragmentIssue{
					Tag:     tag,
					Message: "document-level element inside a block fragment",
				})
			}
			if !voidElement(tag) {
				stack = append(stack, tag)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == string(name) {
					stack = stack[:i]
					break
				}
			}
		}
	}
}

func voidElement(name string) bool {
	switch strings.ToLower(name) {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "source", "track", "wbr":
		return true
	}
	return false
}
