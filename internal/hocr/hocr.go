// Package hocr parses the hOCR output of a recognition engine into plain text
// and per-word confidences.
//
// Only the structural classes that carry reading order are interpreted:
// ocr_par, ocr_line (and its caption/header/textfloat variants) and
// ocrx_word. Everything else is walked through.
package hocr

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Word is a recognized word.
type Word struct {
	Text string
	// Confidence is the engine's x_wconf value in [0,100].
	Confidence float64
	// HasConfidence reports whether the word carried an x_wconf property.
	HasConfidence bool
}

// Line is a sequence of words on one text line.
type Line struct {
	Words []Word
}

// Paragraph is a sequence of lines.
type Paragraph struct {
	Lines []Line
}

// Document is a parsed hOCR document.
type Document struct {
	Paragraphs []Paragraph
}

var lineClasses = []string{"ocr_line", "ocr_caption", "ocr_header", "ocr_textfloat"}

// Parse parses an hOCR document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse hocr: %w", err)
	}

	doc := &Document{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "ocr_par"):
				doc.Paragraphs = append(doc.Paragraphs, Paragraph{})
			case hasAnyClass(n, lineClasses):
				p := doc.lastParagraph()
				p.Lines = append(p.Lines, Line{})
			case hasClass(n, "ocrx_word"):
				text := strings.TrimSpace(textContent(n))
				if text != "" {
					w := Word{Text: text}
					w.Confidence, w.HasConfidence = wordConfidence(attr(n, "title"))
					l := doc.lastLine()
					l.Words = append(l.Words, w)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return doc, nil
}

// ParseString parses an hOCR document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Text renders the document as plain text: words separated by a space, lines
// by a newline and paragraphs by a blank line. Empty lines and paragraphs are
// omitted.
func (d *Document) Text() string {
	var paras []string
	for _, p := range d.Paragraphs {
		var lines []string
		for _, l := range p.Lines {
			if len(l.Words) == 0 {
				continue
			}
			words := make([]string, len(l.Words))
			for i, w := range l.Words {
				words[i] = w.Text
			}
			lines = append(lines, strings.Join(words, " "))
		}
		if len(lines) > 0 {
			paras = append(paras, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(paras, "\n\n")
}

// Words returns every word in reading order.
func (d *Document) Words() []Word {
	var words []Word
	for _, p := range d.Paragraphs {
		for _, l := range p.Lines {
			words = append(words, l.Words...)
		}
	}
	return words
}

// MeanConfidence returns the mean x_wconf of the words that carry one.
// ok is false when no word has a confidence.
func (d *Document) MeanConfidence() (mean float64, ok bool) {
	var sum float64
	n := 0
	for _, w := range d.Words() {
		if w.HasConfidence {
			sum += w.Confidence
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (d *Document) lastParagraph() *Paragraph {
	if len(d.Paragraphs) == 0 {
		d.Paragraphs = append(d.Paragraphs, Paragraph{})
	}
	return &d.Paragraphs[len(d.Paragraphs)-1]
}

func (d *Document) lastLine() *Line {
	p := d.lastParagraph()
	if len(p.Lines) == 0 {
		p.Lines = append(p.Lines, Line{})
	}
	return &p.Lines[len(p.Lines)-1]
}

// wordConfidence extracts x_wconf from an hOCR title attribute such as
// "bbox 36 92 96 116; x_wconf 93".
func wordConfidence(title string) (float64, bool) {
	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(prop)
		if len(fields) == 2 && fields[0] == "x_wconf" {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func hasAnyClass(n *html.Node, classes []string) bool {
	for _, c := range classes {
		if hasClass(n, c) {
			return true
		}
	}
	return false
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
