package templates

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// SectionSpec describes one catalogue section. Card sections are never split
// across pages.
type SectionSpec struct {
	Key             string `yaml:"key" json:"key"`
	Title           string `yaml:"title" json:"title"`
	Card            bool   `yaml:"card" json:"card"`
	PageBreakBefore bool   `yaml:"page_break_before" json:"page_break_before,omitempty"`
	PageBreakAfter  bool   `yaml:"page_break_after" json:"page_break_after,omitempty"`
}

type Palette struct {
	CompanyName    string `yaml:"company_name" json:"company_name"`
	PrimaryColor   string `yaml:"primary_color" json:"primary_color"`
	SecondaryColor string `yaml:"secondary_color" json:"secondary_color"`
	AccentColor    string `yaml:"accent_color" json:"accent_color"`
}

type PageSpec struct {
	Size        string `yaml:"size" json:"size"`
	Orientation string `yaml:"orientation" json:"orientation"`
}

// Catalog is immutable after load.
type Catalog struct {
	Fallback Palette           `yaml:"fallback"`
	Page     PageSpec          `yaml:"page"`
	Sections []SectionSpec     `yaml:"sections"`
	Titles   map[string]string `yaml:"titles"`

	index map[string]int
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// DefaultCatalog returns the embedded catalogue.
func DefaultCatalog() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = ParseCatalog(catalogYAML)
	})
	return defaultCatalog, defaultErr
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse section catalog: %w", err)
	}
	if len(c.Sections) == 0 {
		return nil, fmt.Errorf("section catalog is empty")
	}
	c.index = make(map[string]int, len(c.Sections))
	for i, s := range c.Sections {
		if s.Key == "" {
			return nil, fmt.Errorf("section %d has no key", i)
		}
		if _, dup := c.index[s.Key]; dup {
			return nil, fmt.Errorf("duplicate section key %q", s.Key)
		}
		c.index[s.Key] = i
	}
	return &c, nil
}

func (c *Catalog) Has(key string) bool {
	_, ok := c.index[key]
	return ok
}

func (c *Catalog) Section(key string) (SectionSpec, bool) {
	i, ok := c.index[key]
	if !ok {
		return SectionSpec{}, false
	}
	return c.Sections[i], true
}

func (c *Catalog) Keys() []string {
	out := make([]string, len(c.Sections))
	for i, s := range c.Sections {
		out[i] = s.Key
	}
	return out
}

// Title is the document title for an artifact type.
func (c *Catalog) Title(artifactType string) string {
	if t, ok := c.Titles[artifactType]; ok && t != "" {
		return t
	}
	return "Claim Document"
}
