package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type BlockKind string

const (
	BlockTitle   BlockKind = "title"
	BlockHeading BlockKind = "heading"
	BlockText    BlockKind = "text"
	BlockField   BlockKind = "field"
	BlockBullet  BlockKind = "bullet"
	BlockImage   BlockKind = "image"
)

// Block is the smallest unit the native backend places on a page.
type Block struct {
	Kind  BlockKind
	Text  string
	Label string
	URL   string
	// Group is non-zero for blocks a generator marked data-card. Blocks of
	// one group share a page.
	Group int
}

type SectionLayout struct {
	Key         string
	Card        bool
	BreakBefore bool
	BreakAfter  bool
	Blocks      []Block
}

// Layout is an assembled document reduced to what a page renderer needs.
type Layout struct {
	Title          string
	Company        string
	PrimaryColor   string
	SecondaryColor string
	AccentColor    string
	PageSize       string
	Orientation    string
	Sections       []SectionLayout
}

// ParseLayout reads a document produced by assembleDocument.
func ParseLayout(doc string) (*Layout, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	body := d.Find("body").First()
	out := &Layout{
		Title:          body.AttrOr("data-title", ""),
		Company:        body.AttrOr("data-company", ""),
		PrimaryColor:   body.AttrOr("data-primary-color", "#1F3A5F"),
		SecondaryColor: body.AttrOr("data-secondary-color", "#4B5563"),
		AccentColor:    body.AttrOr("data-accent-color", "#C2410C"),
		PageSize:       body.AttrOr("data-page-size", "Letter"),
		Orientation:    body.AttrOr("data-orientation", "portrait"),
	}
	d.Find("section[data-section]").Each(func(_ int, s *goquery.Selection) {
		sec := SectionLayout{
			Key:         s.AttrOr("data-section", ""),
			Card:        s.AttrOr("data-card", "") == "true",
			BreakBefore: s.AttrOr("data-break-before", "") == "page",
			BreakAfter:  s.AttrOr("data-break-after", "") == "page",
		}
		c := &blockCollector{}
		c.collect(s)
		sec.Blocks = c.out
		out.Sections = append(out.Sections, sec)
	})
	return out, nil
}

type blockCollector struct {
	out   []Block
	group int
	next  int
}

func (bc *blockCollector) add(b Block) {
	b.Group = bc.group
	bc.out = append(bc.out, b)
}

func (bc *blockCollector) text(kind BlockKind, text string) {
	if text = collapse(text); text != "" {
		bc.add(Block{Kind: kind, Text: text})
	}
}

func (bc *blockCollector) collect(s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if c.Get(0).Type != html.ElementNode {
			return
		}
		if c.AttrOr("data-card", "") == "true" && bc.group == 0 {
			bc.next++
			bc.group = bc.next
			defer func() { bc.group = 0 }()
		}
		switch goquery.NodeName(c) {
		case "h1":
			bc.text(BlockTitle, c.Text())
		case "h2", "h3", "h4":
			bc.text(BlockHeading, c.Text())
		case "p", "blockquote", "pre":
			bc.text(BlockText, c.Text())
		case "li":
			bc.text(BlockBullet, c.Text())
		case "dl":
			for _, b := range fieldBlocks(c) {
				bc.add(b)
			}
		case "img":
			bc.add(Block{Kind: BlockImage, URL: c.AttrOr("src", ""), Text: c.AttrOr("alt", "")})
		case "figure":
			img := c.Find("img").First()
			if img.Length() == 0 {
				bc.text(BlockText, c.Text())
				return
			}
			bc.add(Block{
				Kind:  BlockImage,
				URL:   img.AttrOr("src", ""),
				Text:  collapse(c.Find("figcaption").Text()),
				Label: c.AttrOr("class", ""),
			})
		case "tr":
			cells := c.Find("th,td").Map(func(_ int, td *goquery.Selection) string { return collapse(td.Text()) })
			bc.text(BlockText, strings.Join(cells, "  |  "))
		default:
			bc.collect(c)
		}
	})
}

func fieldBlocks(dl *goquery.Selection) []Block {
	var out []Block
	var label string
	dl.Children().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "dt":
			label = collapse(c.Text())
		case "dd":
			out = append(out, Block{Kind: BlockField, Label: label, Text: collapse(c.Text())})
			label = ""
		}
	})
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
