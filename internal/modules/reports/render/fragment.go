package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

var forbiddenElements = map[string]bool{
	"script": true, "style": true, "iframe": true, "object": true, "form": true,
	"html": true, "head": true, "body": true,
}

// ValidateFragment checks that a generator produced balanced markup that
// can be dropped inside a <section> without disturbing its siblings.
func ValidateFragment(fragment string) error {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var stack []string
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return fmt.Errorf("tokenize: %w", err)
			}
			if len(stack) > 0 {
				return fmt.Errorf("unclosed <%s>", stack[len(stack)-1])
			}
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if forbiddenElements[tag] {
				return fmt.Errorf("<%s> not allowed in a section", tag)
			}
			if tt == html.StartTagToken && !voidElements[tag] {
				stack = append(stack, tag)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}
			if len(stack) == 0 {
				return fmt.Errorf("stray </%s>", tag)
			}
			if top := stack[len(stack)-1]; top != tag {
				return fmt.Errorf("</%s> closes <%s>", tag, top)
			}
			stack = stack[:len(stack)-1]
		}
	}
}
