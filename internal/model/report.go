package model

import "time"

// Report is the outcome of processing one portal page
type Report struct {
	Source    string    `json:"source"`     // File path or URL that was processed
	FetchedAt time.Time `json:"fetched_at"` // When the page was loaded
	FetchMeta FetchMeta `json:"fetch_meta"` // HTTP metadata, zero for local files

	Kind PageKind `json:"kind"`

	Cases    []QualifiedCase `json:"cases,omitempty"`    // Listing pages only
	Verdicts []Verdict       `json:"verdicts,omitempty"` // Listing pages only

	Record     *CaseRecord `json:"record,omitempty"`     // Detail pages only
	Assessment *Assessment `json:"assessment,omitempty"` // Detail pages only
}

// FetchMeta contains HTTP metadata from fetching the source
type FetchMeta struct {
	StatusCode   int               `json:"status_code"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty"`
	FromCache    bool              `json:"from_cache"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// Assessment is the review verdict on an extraction
type Assessment struct {
	Quality     int      `json:"quality"`      // Same as CaseRecord.ExtractionQuality
	Confidence  string   `json:"confidence"`   // "low", "medium", "high"
	NeedsReview bool     `json:"needs_review"` // Quality below the review threshold
	Signals     []Signal `json:"signals"`
}

// Signal describes one diagnostic finding about an extraction
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a diagnostic signal
type SignalType string

const (
	SignalQuality          SignalType = "quality"           // Overall score vs threshold
	SignalMissingCase      SignalType = "missing_case"      // No case number located
	SignalMissingDecedent  SignalType = "missing_decedent"  // No decedent name
	SignalMissingExecutor  SignalType = "missing_executor"  // No executor name
	SignalNoDocuments      SignalType = "no_documents"      // Nothing to download
	SignalTextOnlyParties  SignalType = "text_only_parties" // Parties came from free text, not a table
	SignalWeakFields       SignalType = "weak_fields"       // Fields filled only by the text strategy
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
