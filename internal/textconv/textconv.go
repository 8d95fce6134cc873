// Package textconv flattens rendered HTML into markdown-like plain text.
// Markup, links, and images are discarded; words and block structure survive.
package textconv

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// dropped elements never contribute text.
const dropped = "head,script,style,noscript,template,svg,img,picture,video,audio,iframe,canvas,form"

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "header": true, "hr": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tr": true, "ul": true,
}

var headingLevels = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

// FromHTML converts an HTML document into plain text.
func FromHTML(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(dropped).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	w := &textWriter{}
	w.walk(root)
	return strings.TrimSpace(w.b.String()), nil
}

type textWriter struct {
	b      strings.Builder
	breaks int
	space  bool
}

func (w *textWriter) walk(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch {
		case name == "#text":
			w.text(child.Text())
		case name == "br":
			w.breaks = min(w.breaks+1, 2)
		case headingLevels[name] > 0:
			w.lineBreak(2)
			w.prefix(strings.Repeat("#", headingLevels[name]) + " ")
			w.walk(child)
			w.lineBreak(2)
		case name == "li":
			w.lineBreak(1)
			w.prefix("* ")
			w.walk(child)
			w.lineBreak(1)
		case name == "td" || name == "th":
			w.space = true
			w.walk(child)
			w.space = true
		case blockElements[name]:
			w.lineBreak(2)
			w.walk(child)
			w.lineBreak(2)
		default:
			w.walk(child)
		}
	})
}

func (w *textWriter) text(s string) {
	collapsed := strings.Join(strings.Fields(s), " ")
	if collapsed == "" {
		if s != "" {
			w.space = true
		}
		return
	}
	if startsWithSpace(s) {
		w.space = true
	}
	w.flush()
	if w.space && w.b.Len() > 0 && !strings.HasSuffix(w.b.String(), "\n") && !strings.HasSuffix(w.b.String(), " ") {
		w.b.WriteByte(' ')
	}
	w.space = false
	w.b.WriteString(collapsed)
	if endsWithSpace(s) {
		w.space = true
	}
}

func (w *textWriter) prefix(p string) {
	w.flush()
	w.b.WriteString(p)
	w.space = false
}

func (w *textWriter) lineBreak(n int) {
	if n > w.breaks {
		w.breaks = n
	}
}

func (w *textWriter) flush() {
	if w.breaks > 0 && w.b.Len() > 0 {
		w.b.WriteString(strings.Repeat("\n", w.breaks))
		w.space = false
	}
	w.breaks = 0
}

func startsWithSpace(s string) bool {
	return len(s) > 0 && strings.TrimLeft(s[:1], " \t\r\n\f") == ""
}

func endsWithSpace(s string) bool {
	return len(s) > 0 && strings.TrimRight(s[len(s)-1:], " \t\r\n\f") == ""
}
