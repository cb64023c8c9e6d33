package score

import (
	"fmt"

	"github.com/ppiankov/estatescout/internal/model"
)

// Scorer turns an extracted record into a review assessment
type Scorer struct {
	threshold int
}

// NewScorer creates a scorer that flags records below threshold for review
func NewScorer(threshold int) *Scorer {
	return &Scorer{threshold: threshold}
}

// Assess is NewScorer(threshold).Assess(rec)
func Assess(rec model.CaseRecord, threshold int) model.Assessment {
	return NewScorer(threshold).Assess(rec)
}

// Assess inspects the record and its point awards
func (s *Scorer) Assess(rec model.CaseRecord) model.Assessment {
	signals := []model.Signal{s.qualitySignal(rec)}

	if rec.CaseNumber == "" {
		signals = append(signals, model.Signal{
			Type:        model.SignalMissingCase,
			Severity:    model.SeverityCritical,
			Description: "No case number located",
		})
	}

	if rec.Parties.Decedent.Name == "" {
		signals = append(signals, model.Signal{
			Type:        model.SignalMissingDecedent,
			Severity:    model.SeverityCritical,
			Description: "No decedent name located",
		})
	}

	if rec.Parties.Executor.Name == "" {
		signals = append(signals, model.Signal{
			Type:        model.SignalMissingExecutor,
			Severity:    model.SeverityWarning,
			Description: "No executor or administrator located",
		})
	}

	if len(rec.Documents) == 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalNoDocuments,
			Severity:    model.SeverityWarning,
			Description: "No downloadable documents found",
		})
	}

	if sig, ok := s.textOnlyParties(rec); ok {
		signals = append(signals, sig)
	}
	if sig, ok := s.weakFields(rec); ok {
		signals = append(signals, sig)
	}

	return model.Assessment{
		Quality:     rec.ExtractionQuality,
		Confidence:  s.determineConfidence(rec.ExtractionQuality),
		NeedsReview: rec.ExtractionQuality < s.threshold,
		Signals:     signals,
	}
}

func (s *Scorer) qualitySignal(rec model.CaseRecord) model.Signal {
	severity := model.SeverityInfo
	switch {
	case rec.ExtractionQuality < s.threshold:
		severity = model.SeverityCritical
	case rec.ExtractionQuality < 50:
		severity = model.SeverityWarning
	}

	byStrategy := make(map[string]int)
	for _, a := range rec.Awards {
		byStrategy[a.Strategy] += a.Points
	}

	data := map[string]interface{}{
		"quality":   rec.ExtractionQuality,
		"threshold": s.threshold,
		"awards":    len(rec.Awards),
	}
	for name, points := range byStrategy {
		data["points_"+name] = points
	}

	return model.Signal{
		Type:        model.SignalQuality,
		Severity:    severity,
		Description: fmt.Sprintf("Extraction quality %d (review below %d)", rec.ExtractionQuality, s.threshold),
		Data:        data,
	}
}

// textOnlyParties fires when a decedent was found but not from a party table
func (s *Scorer) textOnlyParties(rec model.CaseRecord) (model.Signal, bool) {
	if rec.Parties.Decedent.Name == "" {
		return model.Signal{}, false
	}
	for _, a := range rec.Awards {
		if a.Field == model.FieldDecedent && a.Strategy != "text" {
			return model.Signal{}, false
		}
	}
	return model.Signal{
		Type:        model.SignalTextOnlyParties,
		Severity:    model.SeverityWarning,
		Description: "Parties were read from page text, not a party table",
		Data:        map[string]interface{}{"decedent": rec.Parties.Decedent.Name},
	}, true
}

// weakFields lists case fields that only the text strategy could fill
func (s *Scorer) weakFields(rec model.CaseRecord) (model.Signal, bool) {
	var fields []string
	for _, a := range rec.Awards {
		if a.Strategy != "text" {
			continue
		}
		switch a.Field {
		case model.FieldCaseNumber, model.FieldFilingDate, model.FieldCaseStatus, model.FieldCounty:
			fields = append(fields, string(a.Field))
		}
	}
	if len(fields) == 0 {
		return model.Signal{}, false
	}
	return model.Signal{
		Type:        model.SignalWeakFields,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("%d case field(s) located by text patterns only", len(fields)),
		Data:        map[string]interface{}{"fields": fields},
	}, true
}

// determineConfidence maps the quality score to a confidence level
func (s *Scorer) determineConfidence(quality int) string {
	if quality >= 80 {
		return "high"
	} else if quality >= 50 {
		return "medium"
	}
	return "low"
}
