package render

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Backend turns an assembled HTML document into bytes.
type Backend interface {
	Name() string
	HTMLToPDF(ctx context.Context, doc string) ([]byte, error)
	HTMLToPNG(ctx context.Context, doc string) ([]byte, error)
}

// ErrRasterUnsupported is returned by backends without PNG output.
var ErrRasterUnsupported = errors.New("backend has no raster output")

// SectionFailure attributes a backend error to the section being drawn.
type SectionFailure struct {
	Key string
	Err error
}

func (e *SectionFailure) Error() string { return fmt.Sprintf("section %s: %v", e.Key, e.Err) }
func (e *SectionFailure) Unwrap() error { return e.Err }

// parseHexColor accepts #RGB and #RRGGBB.
func parseHexColor(s string) (r, g, b int, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

func hexOr(s, fallback string) (int, int, int) {
	if r, g, b, ok := parseHexColor(s); ok {
		return r, g, b
	}
	r, g, b, _ := parseHexColor(fallback)
	return r, g, b
}
