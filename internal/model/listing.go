package model

// PageKind is the shape of a portal page
type PageKind string

const (
	PageListing PageKind = "listing" // Search results
	PageDetail  PageKind = "detail"  // Single case
	PageUnknown PageKind = "unknown"
)

// QualifiedCase is a listing entry that passed every eligibility gate
type QualifiedCase struct {
	CaseNumber   string           `json:"caseNumber"`
	DecedentName string           `json:"decedentName"`
	Target       NavigationTarget `json:"target"`
}

// NavigationTarget points at the anchor used to open a case
type NavigationTarget struct {
	Href     string `json:"href"`           // "#" when unresolved
	Text     string `json:"text,omitempty"` // Anchor text
	Resolved bool   `json:"resolved"`
}

// PlaceholderHref marks a target the driver cannot navigate to
const PlaceholderHref = "#"

// Verdict explains why a listing entry was or was not qualified
type Verdict struct {
	CaseNumber string `json:"caseNumber"`
	Qualified  bool   `json:"qualified"`
	Reason     Reason `json:"reason,omitempty"`
	AgeYears   int    `json:"ageYears"`
}

// Reason classifies an eligibility rejection
type Reason string

const (
	ReasonNotEstate   Reason = "not_estate"
	ReasonExcluded    Reason = "excluded_status"
	ReasonNotDisposed Reason = "not_disposed"
	ReasonTooRecent   Reason = "too_recent"
)
