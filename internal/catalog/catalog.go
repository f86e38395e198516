// Package catalog lists the returns each reporting frequency accepts.
package catalog

import (
	"regexp"
	"strings"

	"github.com/obotesoftech/prisonreturns/types"
)

// ReturnType is one catalog entry.
type ReturnType struct {
	// Slug is the value stored on a return, e.g. "staff-nominal-roll".
	Slug string `json:"value"`

	// Label is the human-readable name, e.g. "Staff Nominal Roll".
	Label string `json:"label"`
}

var labels = map[types.Frequency][]string{
	types.FrequencyMonthly: {
		"Staff Nominal Roll", "Staff Causality", "Staff Strength", "Staff SACCO Membership", "PF 1",
		"Prisoners Statistics", "Normal Releases", "Death of Prisoners", "Death of Staff", "Escape",
		"Recapture", "Search", "Prisoners' Ration", "NTR", "Arms & Ammunitions", "Public Complaint",
		"Bricks Activities", "Progressive Afforestation", "Progressive Farm Production",
		"Foreigners (CON & REM)", "Ary Prisoners", "Court Operations", "Donations", "Intelligence",
	},
	types.FrequencyQuarterly: {
		"PF 30", "Recidivists", "Adm & Disc Board", "Released Prisoners", "Staff & Prisoners HR",
		"Welfare & Rehab", "NGO Activities", "Homosexuality", "High Risks Prisoners",
		"Accountabilities", "Requisition For Prs Due for Release",
	},
	types.FrequencyAnnual: {
		"PF 24", "PSF4 (PO II & Above And Civilian Officers)", "Annual Report",
	},
}

var whitespace = regexp.MustCompile(`\s+`)

// Slug converts a label to the value stored on a return.
func Slug(label string) string {
	return whitespace.ReplaceAllString(strings.ToLower(label), "-")
}

// ReturnTypes lists the catalog entries for a frequency in display order.
// Unknown frequencies yield nil.
func ReturnTypes(frequency types.Frequency) []ReturnType {
	names := labels[frequency]
	if len(names) == 0 {
		return nil
	}
	out := make([]ReturnType, 0, len(names))
	for _, name := range names {
		out = append(out, ReturnType{Slug: Slug(name), Label: name})
	}
	return out
}

// Contains reports whether slug is a return type of frequency.
func Contains(frequency types.Frequency, slug string) bool {
	for _, name := range labels[frequency] {
		if Slug(name) == slug {
			return true
		}
	}
	return false
}

// Label returns the display label for a slug, falling back to the slug with
// hyphens replaced by spaces.
func Label(frequency types.Frequency, slug string) string {
	for _, name := range labels[frequency] {
		if Slug(name) == slug {
			return name
		}
	}
	return strings.ReplaceAll(slug, "-", " ")
}

// Section groups the return types of one frequency.
type Section struct {
	Frequency   types.Frequency `json:"frequency"`
	ReturnTypes []ReturnType    `json:"returnTypes"`
}

// All returns the whole catalog in frequency order.
func All() []Section {
	sections := make([]Section, 0, len(types.Frequencies))
	for _, frequency := range types.Frequencies {
		sections = append(sections, Section{
			Frequency:   frequency,
			ReturnTypes: ReturnTypes(frequency),
		})
	}
	return sections
}
