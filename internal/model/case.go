package model

import "time"

// CaseRecord is the normalized result of extracting one case detail page
type CaseRecord struct {
	CaseNumber string `json:"caseNumber"` // Normalized, e.g. "22E001713-100"; empty when not found
	CaseType   string `json:"caseType"`
	CaseStatus string `json:"caseStatus"`
	FilingDate string `json:"filingDate"`
	County     string `json:"county"`

	Parties   Parties          `json:"parties"`
	Documents []DocumentRecord `json:"documents"` // Oldest first
	Events    []EventRecord    `json:"events"`
	Sections  Sections         `json:"sections"`

	ExtractionQuality int     `json:"extractionQuality"` // Sum of Awards[].Points
	Awards            []Award `json:"awards,omitempty"`  // Per-field point awards in the order applied

	FullPageText string `json:"fullPageText"`
}

// Parties groups the people named on a case
type Parties struct {
	Decedent      PersonRecord   `json:"decedent"`
	Executor      PersonRecord   `json:"executor"`
	Beneficiaries []PersonRecord `json:"beneficiaries"` // Table row order
}

// PersonRecord describes one party; unknown fields are empty strings
type PersonRecord struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
}

// IsZero reports whether no field of the person was located
func (p PersonRecord) IsZero() bool {
	return p == PersonRecord{}
}

// DocumentRecord references a filed document
type DocumentRecord struct {
	URL     string    `json:"url"`     // Absolute URL
	Name    string    `json:"name"`
	Date    *string   `json:"date"`    // MM/DD/YYYY, nil when unknown
	SortKey time.Time `json:"sortKey"` // Parsed Date, Unix epoch when unknown
	RowText string    `json:"-"`       // Docket row text, used for priority filtering only
}

// EventRecord is one docket / case-event entry
type EventRecord struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	HasDocument bool   `json:"hasDocument"`
}

// Sections holds raw text of named page sections
type Sections struct {
	Parties string `json:"parties,omitempty"` // "Party Information" block
	Events  string `json:"events,omitempty"`  // "Case Events" block
}

// Award records points granted for locating a field
type Award struct {
	Field    Field  `json:"field"`
	Points   int    `json:"points"`
	Strategy string `json:"strategy"` // Strategy that located the field
}

// Field names a scored part of a CaseRecord
type Field string

const (
	FieldCaseNumber    Field = "caseNumber"
	FieldFilingDate    Field = "filingDate"
	FieldCaseStatus    Field = "caseStatus"
	FieldCounty        Field = "county"
	FieldDecedent      Field = "decedent"
	FieldExecutor      Field = "executor"
	FieldBeneficiaries Field = "beneficiaries"
	FieldDocuments     Field = "documents"
	FieldPartySection  Field = "partySection"
	FieldEventsSection Field = "eventsSection"
)

// Epoch is the sort key of documents with an unknown date
var Epoch = time.Unix(0, 0).UTC()
