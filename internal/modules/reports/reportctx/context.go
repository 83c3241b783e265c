package reportctx

import (
	"encoding/json"
	"strings"
)

// ReportContext is everything a section generator may read, grouped by
// namespace. Absent relations keep their namespace with null leaves.
type ReportContext struct {
	Claim    ClaimSection    `json:"claim"`
	Property PropertySection `json:"property"`
	Company  CompanySection  `json:"company"`
	Client   ClientSection   `json:"client"`
	Weather  WeatherSection  `json:"weather"`
	Media    MediaSection    `json:"media"`
	Findings []Finding       `json:"findings"`
	Notes    []Note          `json:"notes"`
}

type ClaimSection struct {
	ID                 string  `json:"id"`
	Number             string  `json:"number"`
	Status             string  `json:"status"`
	PolicyNumber       *string `json:"policy_number"`
	Carrier            *string `json:"carrier"`
	LossType           *string `json:"loss_type"`
	DateOfLoss         *string `json:"date_of_loss"`
	Description        *string `json:"description"`
	AdjusterName       *string `json:"adjuster_name"`
	AdjusterEmail      *string `json:"adjuster_email"`
	AdjusterPhone      *string `json:"adjuster_phone"`
	EstimateVersion    *int    `json:"estimate_version"`
	EstimateTotalCents *int64  `json:"estimate_total_cents"`
	EstimateLineItems  *int    `json:"estimate_line_items"`
}

type PropertySection struct {
	Street     *string `json:"street"`
	Unit       *string `json:"unit"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
	// Address and AddressLines are recomputed from the parts above on every
	// build.
	Address      *string  `json:"address"`
	AddressLines []string `json:"address_lines"`
	YearBuilt    *int     `json:"year_built"`
	RoofType     *string  `json:"roof_type"`
	RoofAgeYears *int     `json:"roof_age_years"`
	Stories      *int     `json:"stories"`
	SquareFeet   *int     `json:"square_feet"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

type CompanySection struct {
	Name           *string `json:"name"`
	LogoURL        *string `json:"logo_url"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	AccentColor    *string `json:"accent_color"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	Website        *string `json:"website"`
	Address        *string `json:"address"`
	LicenseNumber  *string `json:"license_number"`
}

type ClientSection struct {
	Name      *string `json:"name"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

type WeatherSection struct {
	Events            []WeatherEvent `json:"events"`
	MaxHailSizeInches *float64       `json:"max_hail_size_inches"`
	MaxWindSpeedMph   *float64       `json:"max_wind_speed_mph"`
}

type WeatherEvent struct {
	Date           string   `json:"date"`
	Type           string   `json:"type"`
	HailSizeInches *float64 `json:"hail_size_inches"`
	WindSpeedMph   *float64 `json:"wind_speed_mph"`
	DistanceMiles  *float64 `json:"distance_miles"`
	Source         *string  `json:"source"`
}

type MediaSection struct {
	Photos    []MediaItem `json:"photos"`
	Documents []MediaItem `json:"documents"`
}

type MediaItem struct {
	URL     string  `json:"url"`
	Caption *string `json:"caption"`
	Area    *string `json:"area"`
	TakenAt *string `json:"taken_at"`
}

type Finding struct {
	Area      *string `json:"area"`
	Statement string  `json:"statement"`
	Severity  *string `json:"severity"`
}

type Note struct {
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// JSON is the canonical serialisation used for snapshots and diffs.
func (c *ReportContext) JSON() (json.RawMessage, error) {
	return json.Marshal(c)
}

// normalize replaces nil slices with empty ones so every list leaf
// serialises as [] rather than null.
func (c *ReportContext) normalize() {
	if c.Findings == nil {
		c.Findings = []Finding{}
	}
	if c.Notes == nil {
		c.Notes = []Note{}
	}
	if c.Weather.Events == nil {
		c.Weather.Events = []WeatherEvent{}
	}
	if c.Media.Photos == nil {
		c.Media.Photos = []MediaItem{}
	}
	if c.Media.Documents == nil {
		c.Media.Documents = []MediaItem{}
	}
	if c.Property.AddressLines == nil {
		c.Property.AddressLines = []string{}
	}
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// FormatAddress joins address parts into display lines. Blank parts are
// skipped; the second line is "City, ST 80202".
func FormatAddress(street, unit, city, state, postal, country string) []string {
	var lines []string
	first := strings.TrimSpace(street)
	if u := strings.TrimSpace(unit); u != "" {
		if first != "" {
			first += " " + u
		} else {
			first = u
		}
	}
	if first != "" {
		lines = append(lines, first)
	}

	city = strings.TrimSpace(city)
	stateZip := strings.TrimSpace(strings.TrimSpace(state) + " " + strings.TrimSpace(postal))
	second := city
	if stateZip != "" {
		if second != "" {
			second += ", " + stateZip
		} else {
			second = stateZip
		}
	}
	if second != "" {
		lines = append(lines, second)
	}
	if c := strings.TrimSpace(country); c != "" && !strings.EqualFold(c, "US") && !strings.EqualFold(c, "USA") {
		lines = append(lines, c)
	}
	return lines
}
