// Package scanner searches the visible text of an HTML document for a set
// of keywords and phrases, reporting the smallest enclosing element's text
// as match context.
package scanner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	goahocorasick "github.com/anknown/ahocorasick"
	"golang.org/x/net/html"

	"scrapegoat/internal/model"
)

var ErrParse = errors.New("html parse failed")

// Tags whose text is never visible to a site visitor.
var hiddenTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "template": {}, "head": {},
}

type KeywordScanner struct {
	machine  *goahocorasick.Machine
	original map[string]string // lowered keyword -> as configured
}

// NewKeywordScanner builds the multi-pattern matching machine once per
// run. Matching is case-insensitive.
func NewKeywordScanner(keywords []string) (*KeywordScanner, error) {
	if len(keywords) == 0 {
		return nil, errors.New("no keywords to scan for")
	}

	original := make(map[string]string, len(keywords))
	dict := make([][]rune, 0, len(keywords))
	for _, kw := range keywords {
		lowered := strings.ToLower(strings.TrimSpace(kw))
		if lowered == "" {
			continue
		}
		if _, ok := original[lowered]; ok {
			continue
		}
		original[lowered] = strings.TrimSpace(kw)
		dict = append(dict, []rune(lowered))
	}
	if len(dict) == 0 {
		return nil, errors.New("no keywords to scan for")
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(dict); err != nil {
		return nil, fmt.Errorf("failed to build keyword machine: %w", err)
	}

	return &KeywordScanner{machine: machine, original: original}, nil
}

// Scan walks the document's text nodes and returns one Match per distinct
// keyword found, paired with the whitespace-normalized text of the
// matching node's parent element. An empty result is a no-match outcome,
// not an error.
func (s *KeywordScanner) Scan(htmlContent string) ([]model.Match, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var matches []model.Match
	matched := make(map[string]struct{}, len(s.original))
	for _, root := range doc.Nodes {
		s.walk(root, matched, &matches)
	}

	return matches, nil
}

func (s *KeywordScanner) walk(n *html.Node, matched map[string]struct{}, matches *[]model.Match) {
	if n.Type == html.ElementNode {
		if _, hidden := hiddenTags[n.Data]; hidden {
			return
		}
	}
	if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
		lowered := strings.ToLower(n.Data)
		for _, term := range s.machine.MultiPatternSearch([]rune(lowered), false) {
			keyword := s.original[string(term.Word)]
			if _, ok := matched[keyword]; ok {
				continue
			}
			matched[keyword] = struct{}{}
			*matches = append(*matches, model.Match{
				Keyword: keyword,
				Context: contextText(n),
			})
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c, matched, matches)
	}
}

// contextText returns the full text of the smallest element containing
// the matching text node, collapsed to single spaces.
func contextText(textNode *html.Node) string {
	parent := textNode.Parent
	for parent != nil && parent.Type != html.ElementNode {
		parent = parent.Parent
	}
	if parent == nil {
		return strings.Join(strings.Fields(textNode.Data), " ")
	}

	text := goquery.NewDocumentFromNode(parent).Text()
	return strings.Join(strings.Fields(text), " ")
}
