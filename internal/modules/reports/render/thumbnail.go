package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	defaultThumbWidth = 320
	// US Letter aspect.
	thumbAspect = 11.0 / 8.5
)

// Thumbnailer produces the first-page preview stored next to each PDF.
type Thumbnailer struct {
	width     int
	height    int
	titleFace font.Face
	bodyFace  font.Face
}

// NewThumbnailer loads fontPath when set and falls back to the built-in
// bitmap face.
func NewThumbnailer(width int, fontPath string) (*Thumbnailer, error) {
	if width <= 0 {
		width = defaultThumbWidth
	}
	t := &Thumbnailer{
		width:     width,
		height:    int(float64(width) * thumbAspect),
		titleFace: basicfont.Face7x13,
		bodyFace:  basicfont.Face7x13,
	}
	if fontPath != "" {
		title, err := loadFontFace(fontPath, float64(width)/16)
		if err != nil {
			return nil, err
		}
		body, err := loadFontFace(fontPath, float64(width)/30)
		if err != nil {
			return nil, err
		}
		t.titleFace, t.bodyFace = title, body
	}
	return t, nil
}

func loadFontFace(path string, size float64) (font.Face, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := truetype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone}), nil
}

// FromPNG scales a backend screenshot down to thumbnail width.
func (t *Thumbnailer) FromPNG(raw []byte) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return nil, fmt.Errorf("empty screenshot")
	}
	h := sb.Dy() * t.width / sb.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, t.width, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromLayout draws a first-page mock: brand band, title and the first
// lines of content.
func (t *Thumbnailer) FromLayout(l *Layout) ([]byte, error) {
	w, h := float64(t.width), float64(t.height)
	dc := gg.NewContext(t.width, t.height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	pr, pg, pb := hexOr(l.PrimaryColor, "#1F3A5F")
	band := h * 0.08
	dc.SetRGB255(pr, pg, pb)
	dc.DrawRectangle(0, 0, w, band)
	dc.Fill()

	pad := w * 0.07
	dc.SetRGB(1, 1, 1)
	dc.SetFontFace(t.bodyFace)
	dc.DrawStringAnchored(l.Company, pad, band/2, 0, 0.5)

	y := band + pad
	dc.SetRGB255(pr, pg, pb)
	dc.SetFontFace(t.titleFace)
	for _, line := range dc.WordWrap(l.Title, w-2*pad) {
		_, lh := dc.MeasureString(line)
		y += lh * 1.3
		dc.DrawString(line, pad, y)
	}
	y += pad / 2

	dc.SetFontFace(t.bodyFace)
	dc.SetRGB255(55, 65, 81)
	for _, s := range l.Sections {
		for _, b := range s.Blocks {
			text := b.Text
			if b.Kind == BlockField {
				text = b.Label + ": " + b.Text
			}
			if b.Kind == BlockTitle || text == "" {
				continue
			}
			for _, line := range dc.WordWrap(text, w-2*pad) {
				_, lh := dc.MeasureString(line)
				if y+lh*1.4 > h-pad {
					return encode(dc)
				}
				y += lh * 1.4
				dc.DrawString(line, pad, y)
			}
		}
	}
	return encode(dc)
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
