package templates

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"gorm.io/datatypes"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
)

// BuiltinID names the catalogue-derived definition.
const BuiltinID = "builtin"

// Definition is a template before branding is applied. A missing
// SectionEnabled entry means enabled.
type Definition struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	Scope          string                   `json:"scope"`
	ArtifactType   string                   `json:"artifact_type,omitempty"`
	SectionOrder   []string                 `json:"section_order"`
	SectionEnabled map[string]bool          `json:"section_enabled,omitempty"`
	Defaults       reports.TemplateDefaults `json:"defaults"`
}

func (d Definition) Enabled(key string) bool {
	v, ok := d.SectionEnabled[key]
	return !ok || v
}

// Builtin is the catalogue with every section enabled.
func Builtin(c *Catalog) Definition {
	return Definition{
		ID:           BuiltinID,
		Name:         "Standard",
		Scope:        reports.TemplateScopeBuiltin,
		SectionOrder: c.Keys(),
	}
}

func DefinitionFromRow(row *types.ReportTemplate) Definition {
	return Definition{
		ID:             row.ID.String(),
		Name:           row.Name,
		Scope:          row.Scope,
		ArtifactType:   row.ArtifactType,
		SectionOrder:   append([]string(nil), row.SectionOrder.Data()...),
		SectionEnabled: copyEnabled(row.SectionEnabled.Data()),
		Defaults:       row.Defaults,
	}
}

// ToRow fills the stored columns of row from d.
func (d Definition) ToRow(row *types.ReportTemplate) {
	row.Name = d.Name
	row.ArtifactType = d.ArtifactType
	row.SectionOrder = datatypes.NewJSONType(append([]string(nil), d.SectionOrder...))
	row.SectionEnabled = datatypes.NewJSONType(copyEnabled(d.SectionEnabled))
	row.Defaults = d.Defaults
}

// Validate checks every section key against the catalogue.
func (d Definition) Validate(c *Catalog) error {
	if strings.TrimSpace(d.Name) == "" {
		return reporterr.Invalid("name", "is required")
	}
	if len(d.SectionOrder) == 0 {
		return reporterr.Invalid("section_order", "must list at least one section")
	}
	seen := make(map[string]struct{}, len(d.SectionOrder))
	for _, k := range d.SectionOrder {
		if !c.Has(k) {
			return reporterr.Invalid("section_order", "unknown section "+k)
		}
		if _, dup := seen[k]; dup {
			return reporterr.Invalid("section_order", "duplicate section "+k)
		}
		seen[k] = struct{}{}
	}
	for k := range d.SectionEnabled {
		if !c.Has(k) {
			return reporterr.Invalid("section_enabled", "unknown section "+k)
		}
	}
	if d.ArtifactType != "" && !reports.ArtifactType(d.ArtifactType).Valid() {
		return reporterr.Invalid("artifact_type", "unknown artifact type "+d.ArtifactType)
	}
	return nil
}

// copyEnabled keeps only explicit false entries so equal definitions have
// equal maps.
func copyEnabled(in map[string]bool) map[string]bool {
	out := map[string]bool{}
	for k, v := range in {
		if !v {
			out[k] = false
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// BrandingFingerprint changes whenever any field that Merge reads from the
// branding record changes.
func BrandingFingerprint(b *types.Branding) string {
	if b == nil {
		return "none"
	}
	fields := []string{
		b.CompanyName, b.LogoURL, b.PrimaryColor, b.SecondaryColor, b.AccentColor,
		b.Phone, b.Email, b.Website, b.Address, b.LicenseNumber,
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:8])
}

func sortedKeys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
