package render

import (
	"html/template"
	"sort"

	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reportctx"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/templates"
)

// SectionInput is what a generator sees. Generators must not retain it.
type SectionInput struct {
	Section  templates.Section
	Branding templates.Branding
	Title    string
	Context  *reportctx.ReportContext
}

// Generator renders the inner markup of one section.
type Generator func(in SectionInput) (template.HTML, error)

// Registry maps section keys to generators. It is immutable once built.
type Registry struct {
	gens map[string]Generator
}

func NewRegistry(gens map[string]Generator) *Registry {
	cp := make(map[string]Generator, len(gens))
	for k, g := range gens {
		if g != nil {
			cp[k] = g
		}
	}
	return &Registry{gens: cp}
}

func (r *Registry) Lookup(key string) (Generator, bool) {
	g, ok := r.gens[key]
	return g, ok
}

func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.gens))
	for k := range r.gens {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry covers every key in the built-in catalogue.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Generator{
		"cover":           coverSection,
		"claim_summary":   claimSummarySection,
		"property":        propertySection,
		"weather":         weatherSection,
		"findings":        findingsSection,
		"photos":          photosSection,
		"estimate":        estimateSection,
		"notes":           notesSection,
		"company_contact": companyContactSection,
	})
}
