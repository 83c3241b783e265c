package reports

import (
	"database/sql/driver"
	"encoding/json"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/yungbote/claimpacket-backend/internal/domain/jsonvariant"
)

// ShareMetadata controls how a packet is presented to external recipients.
type ShareMetadata struct {
	Filename      string `json:"filename,omitempty"`
	AllowDownload bool   `json:"allow_download"`
	Message       string `json:"message,omitempty"`
}

// ArtifactAttachments is the artifact's free-form map. "share" is typed; any
// other key is carried through updates untouched.
type ArtifactAttachments struct {
	Share *ShareMetadata
	Extra map[string]json.RawMessage
}

func (a ArtifactAttachments) MarshalJSON() ([]byte, error) {
	return jsonvariant.Join(a.Extra, map[string]any{"share": a.Share})
}

func (a *ArtifactAttachments) UnmarshalJSON(b []byte) error {
	known, extra, err := jsonvariant.Split(b, "share")
	if err != nil {
		return err
	}
	*a = ArtifactAttachments{Extra: extra}
	if raw, ok := known["share"]; ok {
		return json.Unmarshal(raw, &a.Share)
	}
	return nil
}

// Patch applies a JSON merge patch over the current value.
func (a ArtifactAttachments) Patch(patch json.RawMessage) (ArtifactAttachments, error) {
	cur, err := json.Marshal(a)
	if err != nil {
		return a, err
	}
	merged, err := jsonvariant.MergePatch(cur, patch)
	if err != nil {
		return a, err
	}
	var out ArtifactAttachments
	if err := json.Unmarshal(merged, &out); err != nil {
		return a, err
	}
	return out, nil
}

func (a ArtifactAttachments) Value() (driver.Value, error) { return jsonvariant.Value(a) }

func (a *ArtifactAttachments) Scan(src any) error { return jsonvariant.Scan(src, a) }

func (ArtifactAttachments) GormDataType() string { return "json" }

func (ArtifactAttachments) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonvariant.DBDataType(db)
}

// BrandingOverride is a template's own branding. Set fields beat the org's
// branding record.
type BrandingOverride struct {
	CompanyName    string `json:"company_name,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	AccentColor    string `json:"accent_color,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Website        string `json:"website,omitempty"`
	Address        string `json:"address,omitempty"`
	LicenseNumber  string `json:"license_number,omitempty"`
}

type PageDefaults struct {
	Size        string `json:"size,omitempty"`
	Orientation string `json:"orientation,omitempty"`
}

type TemplateDefaults struct {
	Branding *BrandingOverride
	Page     *PageDefaults
	Extra    map[string]json.RawMessage
}

func (d TemplateDefaults) MarshalJSON() ([]byte, error) {
	return jsonvariant.Join(d.Extra, map[string]any{
		"branding": d.Branding,
		"page":     d.Page,
	})
}

func (d *TemplateDefaults) UnmarshalJSON(b []byte) error {
	known, extra, err := jsonvariant.Split(b, "branding", "page")
	if err != nil {
		return err
	}
	*d = TemplateDefaults{Extra: extra}
	if raw, ok := known["branding"]; ok {
		if err := json.Unmarshal(raw, &d.Branding); err != nil {
			return err
		}
	}
	if raw, ok := known["page"]; ok {
		if err := json.Unmarshal(raw, &d.Page); err != nil {
			return err
		}
	}
	return nil
}

func (d TemplateDefaults) Value() (driver.Value, error) { return jsonvariant.Value(d) }

func (d *TemplateDefaults) Scan(src any) error { return jsonvariant.Scan(src, d) }

func (TemplateDefaults) GormDataType() string { return "json" }

func (TemplateDefaults) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonvariant.DBDataType(db)
}
