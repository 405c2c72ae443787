package htmlutil

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"ourvend-sync/lib/textutil"

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

// ActionCall is an inline onclick handler of the form `Fn('arg0', ...)`.
type ActionCall struct {
	Tag     string
	Text    string
	Onclick string
	Args    []string
}

// FirstIntArg returns the first argument of the call as an integer.
func (c ActionCall) FirstIntArg() (int, bool) {
	if len(c.Args) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(c.Args[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

var argRegex = regexp.MustCompile(`'([^']*)'|"([^"]*)"|([^,\s()]+)`)

// ParseCall extracts the arguments of the first `fn(...)` call in an
// onclick attribute.
func ParseCall(onclick, fn string) ([]string, bool) {
	start := strings.Index(onclick, fn+"(")
	if start < 0 {
		return nil, false
	}
	rest := onclick[start+len(fn)+1:]
	end := strings.Index(rest, ")")
	if end < 0 {
		return nil, false
	}
	var args []string
	for _, groups := range argRegex.FindAllStringSubmatch(rest[:end], -1) {
		for _, g := range groups[1:] {
			if g != "" {
				args = append(args, g)
				break
			}
		}
		if groups[1] == "" && groups[2] == "" && groups[3] == "" {
			args = append(args, "")
		}
	}
	return args, true
}

// ActionCalls lists every element in the document whose onclick invokes
// fn, in document order.
func ActionCalls(doc *goquery.Document, selector, fn string) []ActionCall {
	var calls []ActionCall
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		onclick, ok := s.Attr("onclick")
		if !ok {
			return
		}
		args, ok := ParseCall(onclick, fn)
		if !ok {
			return
		}
		calls = append(calls, ActionCall{
			Tag:     goquery.NodeName(s),
			Text:    textutil.CleanText(GetText(s.Get(0))),
			Onclick: onclick,
			Args:    args,
		})
	})
	return calls
}

// ActionCallsFromHTML parses raw markup and runs ActionCalls over it.
func ActionCallsFromHTML(markup, selector, fn string) ([]ActionCall, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return ActionCalls(doc, selector, fn), nil
}
