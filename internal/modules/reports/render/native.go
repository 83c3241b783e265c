package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	marginMM      = 15.0
	headerBandMM  = 12.0
	footerMM      = 14.0
	cardPadMM     = 3.0
	fieldLabelMM  = 45.0
	bulletIndent  = 5.0
	photoBoxMM    = 45.0
	logoBoxMM     = 18.0
	bodyLineMM    = 5.0
	sectionGapMM  = 4.0
	contentTopGap = 4.0
)

// NativeBackend draws PDFs in-process with fpdf. Images are drawn as
// captioned placeholders linked to their source URL.
type NativeBackend struct{}

func NewNativeBackend() *NativeBackend { return &NativeBackend{} }

func (b *NativeBackend) Name() string { return "native" }

func (b *NativeBackend) HTMLToPNG(context.Context, string) ([]byte, error) {
	return nil, ErrRasterUnsupported
}

func (b *NativeBackend) HTMLToPDF(ctx context.Context, doc string) ([]byte, error) {
	layout, err := ParseLayout(doc)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New(orientationCode(layout.Orientation), "mm", pageSizeName(layout.PageSize), "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(false, footerMM)
	pdf.AliasNbPages("{nb}")
	pdf.SetTitle(layout.Title, true)
	pdf.SetCreator(layout.Company, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*marginMM
	top := marginMM + headerBandMM + contentTopGap
	usable := pageH - top - footerMM - marginMM/2

	pr, pg, pb := hexOr(layout.PrimaryColor, "#1F3A5F")
	sr, sg, sb := hexOr(layout.SecondaryColor, "#4B5563")
	ar, ag, ab := hexOr(layout.AccentColor, "#C2410C")

	pdf.SetHeaderFunc(func() {
		pdf.SetFillColor(pr, pg, pb)
		pdf.Rect(0, 0, pageW, marginMM+headerBandMM-4, "F")
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetXY(marginMM, marginMM-4)
		pdf.CellFormat(contentW, headerBandMM-4, tr(layout.Company), "", 0, "L", false, 0, "")
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-footerMM)
		pdf.SetDrawColor(ar, ag, ab)
		pdf.Line(marginMM, pdf.GetY(), pageW-marginMM, pdf.GetY())
		pdf.SetTextColor(107, 114, 128)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(contentW/2, 8, tr(layout.Title), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW/2, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	m := &fpdfMeasurer{pdf: pdf, tr: tr, width: contentW - 2*cardPadMM}
	pages := Paginate(layout.Sections, usable, m)

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pdf.AddPage()
		for i, it := range page.Items {
			y := top + it.Y
			if it.CardStart {
				end := cardEnd(page.Items, i)
				h := end.Y + end.Height - it.Y + 2
				pdf.SetDrawColor(229, 231, 235)
				pdf.SetLineWidth(0.3)
				pdf.Rect(marginMM, y-1, contentW, h, "D")
			}
			d := drawer{pdf: pdf, tr: tr, x: marginMM + cardPadMM, w: contentW - 2*cardPadMM,
				primary: [3]int{pr, pg, pb}, secondary: [3]int{sr, sg, sb}, accent: [3]int{ar, ag, ab}}
			d.draw(it.Block, y)
			if pdf.Err() {
				return nil, &SectionFailure{Key: it.SectionKey, Err: pdf.Error()}
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cardEnd(items []Placement, start int) Placement {
	for j := start; j < len(items); j++ {
		if items[j].CardEnd {
			return items[j]
		}
	}
	return items[len(items)-1]
}

type fpdfMeasurer struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	width float64
}

func (m *fpdfMeasurer) SectionGap() float64 { return sectionGapMM }

func (m *fpdfMeasurer) lines(style string, size float64, text string, w float64) int {
	m.pdf.SetFont("Helvetica", style, size)
	n := len(m.pdf.SplitLines([]byte(m.tr(text)), w))
	if n == 0 {
		n = 1
	}
	return n
}

func (m *fpdfMeasurer) Height(b Block) float64 {
	switch b.Kind {
	case BlockTitle:
		return float64(m.lines("B", 18, b.Text, m.width))*8 + 3
	case BlockHeading:
		return float64(m.lines("B", 13, b.Text, m.width))*7 + 2
	case BlockField:
		return float64(m.lines("", 10, b.Text, m.width-fieldLabelMM)) * bodyLineMM
	case BlockBullet:
		return float64(m.lines("", 10, b.Text, m.width-bulletIndent))*bodyLineMM + 1
	case BlockImage:
		box := photoBoxMM
		if b.Label == "logo" {
			box = logoBoxMM
		}
		h := box + 2
		if b.Text != "" {
			h += float64(m.lines("I", 9, b.Text, m.width)) * 4.5
		}
		return h
	default:
		return float64(m.lines("", 10, b.Text, m.width))*bodyLineMM + 1.5
	}
}

type drawer struct {
	pdf       *fpdf.Fpdf
	tr        func(string) string
	x, w      float64
	primary   [3]int
	secondary [3]int
	accent    [3]int
}

func (d drawer) draw(b Block, y float64) {
	pdf := d.pdf
	pdf.SetXY(d.x, y)
	switch b.Kind {
	case BlockTitle:
		pdf.SetFont("Helvetica", "B", 18)
		pdf.SetTextColor(d.primary[0], d.primary[1], d.primary[2])
		pdf.MultiCell(d.w, 8, d.tr(b.Text), "", "L", false)
	case BlockHeading:
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(d.secondary[0], d.secondary[1], d.secondary[2])
		pdf.MultiCell(d.w, 7, d.tr(b.Text), "", "L", false)
		pdf.SetDrawColor(d.accent[0], d.accent[1], d.accent[2])
		pdf.SetLineWidth(0.4)
		ly := pdf.GetY() + 0.5
		pdf.Line(d.x, ly, d.x+d.w, ly)
	case BlockField:
		pdf.SetTextColor(17, 24, 39)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(fieldLabelMM, bodyLineMM, d.tr(b.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(d.x+fieldLabelMM, y)
		pdf.MultiCell(d.w-fieldLabelMM, bodyLineMM, d.tr(b.Text), "", "L", false)
	case BlockBullet:
		pdf.SetTextColor(17, 24, 39)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(bulletIndent, bodyLineMM, d.tr("•"), "", 0, "L", false, 0, "")
		pdf.SetXY(d.x+bulletIndent, y)
		pdf.MultiCell(d.w-bulletIndent, bodyLineMM, d.tr(b.Text), "", "L", false)
	case BlockImage:
		d.placeholder(b, y)
	default:
		pdf.SetTextColor(17, 24, 39)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(d.w, bodyLineMM, d.tr(b.Text), "", "L", false)
	}
}

func (d drawer) placeholder(b Block, y float64) {
	pdf := d.pdf
	box, bw := photoBoxMM, d.w*0.6
	if b.Label == "logo" {
		box, bw = logoBoxMM, logoBoxMM*2
	}
	pdf.SetFillColor(243, 244, 246)
	pdf.SetDrawColor(209, 213, 219)
	pdf.Rect(d.x, y, bw, box, "FD")
	pdf.SetTextColor(107, 114, 128)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(d.x, y+box/2-2)
	label := "Photo"
	if b.Label == "logo" {
		label = "Logo"
	}
	pdf.CellFormat(bw, 4, label, "", 0, "C", false, 0, "")
	if strings.HasPrefix(b.URL, "http://") || strings.HasPrefix(b.URL, "https://") {
		pdf.LinkString(d.x, y, bw, box, b.URL)
	}
	if b.Text != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(55, 65, 81)
		pdf.SetXY(d.x, y+box+1)
		pdf.MultiCell(d.w, 4.5, d.tr(b.Text), "", "L", false)
	}
}

func orientationCode(o string) string {
	if strings.EqualFold(strings.TrimSpace(o), "landscape") {
		return "L"
	}
	return "P"
}

func pageSizeName(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a4":
		return "A4"
	case "legal":
		return "Legal"
	default:
		return "Letter"
	}
}
