package render

// Measurer reports the height a block occupies, in page units.
type Measurer interface {
	Height(b Block) float64
	SectionGap() float64
}

type Placement struct {
	SectionKey string
	Card       bool
	// CardStart and CardEnd bracket the run of a card's blocks on one page.
	CardStart bool
	CardEnd   bool
	Block     Block
	Y         float64
	Height    float64
}

type Page struct {
	Items []Placement
}

// Paginate flows sections onto pages of the given usable height. A card
// section is atomic: it moves to a fresh page rather than split. A card
// taller than a page gets pages of its own. Blocks a generator grouped with
// data-card keep together the same way inside a flowing section. Headings
// stay with the block that follows them.
func Paginate(sections []SectionLayout, pageHeight float64, m Measurer) []Page {
	p := &paginator{height: pageHeight, m: m}
	for _, s := range sections {
		if s.BreakBefore {
			p.newPage()
		}
		gap := 0.0
		if len(p.cur.Items) > 0 {
			gap = m.SectionGap()
		}

		if s.Card {
			total := 0.0
			for _, b := range s.Blocks {
				total += m.Height(b)
			}
			switch {
			case total > pageHeight:
				p.newPage()
				p.flow(s)
				p.newPage()
			default:
				if p.used+gap+total > pageHeight {
					p.newPage()
					gap = 0
				}
				p.used += gap
				for _, b := range s.Blocks {
					p.place(s.Key, true, b, m.Height(b))
				}
			}
		} else {
			p.used += gap
			p.flow(s)
		}

		if s.BreakAfter {
			p.newPage()
		}
	}
	p.newPage()
	if len(p.pages) == 0 {
		p.pages = append(p.pages, Page{})
	}
	markCards(p.pages)
	return p.pages
}

type paginator struct {
	height float64
	m      Measurer
	pages  []Page
	cur    Page
	used   float64
}

func (p *paginator) newPage() {
	if len(p.cur.Items) == 0 {
		p.used = 0
		return
	}
	p.pages = append(p.pages, p.cur)
	p.cur = Page{}
	p.used = 0
}

func (p *paginator) place(key string, card bool, b Block, h float64) {
	p.cur.Items = append(p.cur.Items, Placement{SectionKey: key, Card: card, Block: b, Y: p.used, Height: h})
	p.used += h
}

// flow places a section's blocks in order, splitting across pages as
// needed. A run of blocks sharing a Group moves to a fresh page rather than
// split. A run taller than a page starts a fresh page and flows from there.
func (p *paginator) flow(s SectionLayout) {
	for i := 0; i < len(s.Blocks); i++ {
		b := s.Blocks[i]
		if b.Group != 0 {
			j := i
			total := 0.0
			for j < len(s.Blocks) && s.Blocks[j].Group == b.Group {
				total += p.m.Height(s.Blocks[j])
				j++
			}
			if p.used+total > p.height {
				p.newPage()
			}
			for ; i < j; i++ {
				h := p.m.Height(s.Blocks[i])
				if p.used+h > p.height {
					p.newPage()
				}
				p.place(s.Key, s.Card, s.Blocks[i], h)
			}
			i--
			continue
		}
		h := p.m.Height(b)
		need := h
		if isHeading(b) && i+1 < len(s.Blocks) {
			need += p.m.Height(s.Blocks[i+1])
		}
		if p.used+need > p.height {
			p.newPage()
		}
		p.place(s.Key, s.Card, b, h)
	}
}

func markCards(pages []Page) {
	for pi := range pages {
		items := pages[pi].Items
		for i := range items {
			if !items[i].Card {
				continue
			}
			if i == 0 || items[i-1].SectionKey != items[i].SectionKey || !items[i-1].Card {
				items[i].CardStart = true
			}
			if i == len(items)-1 || items[i+1].SectionKey != items[i].SectionKey || !items[i+1].Card {
				items[i].CardEnd = true
			}
		}
	}
}

func isHeading(b Block) bool {
	return b.Kind == BlockHeading || b.Kind == BlockTitle
}
