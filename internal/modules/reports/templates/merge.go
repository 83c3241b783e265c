package templates

import (
	"encoding/json"
	"strings"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/domain/reports"
)

// Branding is the resolved look of a document. Every field has passed
// through template > org branding > fallback precedence.
type Branding struct {
	CompanyName    string `json:"company_name"`
	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Website        string `json:"website,omitempty"`
	Address        string `json:"address,omitempty"`
	LicenseNumber  string `json:"license_number,omitempty"`
}

// Section is one resolved, renderable slot.
type Section struct {
	SectionSpec
	Enabled bool `json:"enabled"`
}

// MergedTemplate is a Definition with branding and base layout applied.
// Its Definition carries the resolved values, so merging it again with the
// same branding yields the same result.
type MergedTemplate struct {
	Definition
	Sections []Section `json:"sections"`
	Branding Branding  `json:"branding"`
	Page     PageSpec  `json:"page"`
}

// EnabledSections lists the sections to render, in order.
func (m *MergedTemplate) EnabledSections() []Section {
	out := make([]Section, 0, len(m.Sections))
	for _, s := range m.Sections {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func (m *MergedTemplate) SectionKeys() []string {
	out := make([]string, 0, len(m.Sections))
	for _, s := range m.EnabledSections() {
		out = append(out, s.Key)
	}
	return out
}

// Merge overlays def onto the catalogue and applies branding. Marketplace
// definitions keep their layout verbatim; other scopes list their own order
// first and then any catalogue section they omit. Merge is pure.
func Merge(c *Catalog, def Definition, b *types.Branding) MergedTemplate {
	order := def.SectionOrder
	if def.Scope != reports.TemplateScopeMarketplace {
		order = overlayOrder(c, def.SectionOrder)
	}

	sections := make([]Section, 0, len(order))
	for _, key := range order {
		spec, ok := c.Section(key)
		if !ok {
			// Kept so the renderer can skip and report it.
			spec = SectionSpec{Key: key, Title: key}
		}
		sections = append(sections, Section{SectionSpec: spec, Enabled: def.Enabled(key)})
	}

	brand := resolveBranding(c, def.Defaults.Branding, b)
	page := c.Page
	if p := def.Defaults.Page; p != nil {
		if p.Size != "" {
			page.Size = p.Size
		}
		if p.Orientation != "" {
			page.Orientation = p.Orientation
		}
	}

	out := MergedTemplate{
		Definition: Definition{
			ID:             def.ID,
			Name:           def.Name,
			Scope:          def.Scope,
			ArtifactType:   def.ArtifactType,
			SectionOrder:   append([]string(nil), order...),
			SectionEnabled: copyEnabled(def.SectionEnabled),
			Defaults: reports.TemplateDefaults{
				Branding: brandingOverride(brand),
				Page:     &reports.PageDefaults{Size: page.Size, Orientation: page.Orientation},
				Extra:    copyExtra(def.Defaults.Extra),
			},
		},
		Sections: sections,
		Branding: brand,
		Page:     page,
	}
	return out
}

// CanonicalJSON is the byte form used to compare merges.
func (m *MergedTemplate) CanonicalJSON() ([]byte, error) {
	return json.Marshal(m)
}

func overlayOrder(c *Catalog, custom []string) []string {
	out := make([]string, 0, len(c.Sections))
	seen := make(map[string]struct{}, len(c.Sections))
	for _, k := range custom {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	for _, k := range c.Keys() {
		if _, ok := seen[k]; ok {
			continue
		}
		out = append(out, k)
	}
	return out
}

func resolveBranding(c *Catalog, tmpl *reports.BrandingOverride, b *types.Branding) Branding {
	var t reports.BrandingOverride
	if tmpl != nil {
		t = *tmpl
	}
	var o types.Branding
	if b != nil {
		o = *b
	}
	f := c.Fallback
	return Branding{
		CompanyName:    first(t.CompanyName, o.CompanyName, f.CompanyName),
		LogoURL:        first(t.LogoURL, o.LogoURL),
		PrimaryColor:   first(t.PrimaryColor, o.PrimaryColor, f.PrimaryColor),
		SecondaryColor: first(t.SecondaryColor, o.SecondaryColor, f.SecondaryColor),
		AccentColor:    first(t.AccentColor, o.AccentColor, f.AccentColor),
		Phone:          first(t.Phone, o.Phone),
		Email:          first(t.Email, o.Email),
		Website:        first(t.Website, o.Website),
		Address:        first(t.Address, o.Address),
		LicenseNumber:  first(t.LicenseNumber, o.LicenseNumber),
	}
}

func brandingOverride(b Branding) *reports.BrandingOverride {
	return &reports.BrandingOverride{
		CompanyName:    b.CompanyName,
		LogoURL:        b.LogoURL,
		PrimaryColor:   b.PrimaryColor,
		SecondaryColor: b.SecondaryColor,
		AccentColor:    b.AccentColor,
		Phone:          b.Phone,
		Email:          b.Email,
		Website:        b.Website,
		Address:        b.Address,
		LicenseNumber:  b.LicenseNumber,
	}
}

func copyExtra(in map[string]json.RawMessage) map[string]json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for _, k := range sortedKeys(in) {
		out[k] = append(json.RawMessage(nil), in[k]...)
	}
	return out
}

func first(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
