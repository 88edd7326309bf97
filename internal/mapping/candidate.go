package mapping

import "github.com/asanchezr/ledgermap/internal/catalog"

// Source records which signal produced a mapping.
type Source string

const (
	SourceExact    Source = "exact"
	SourceContent  Source = "content"
	SourceCombined Source = "combined"
	SourceForced   Source = "forced"
	SourceBalance  Source = "balance"
)

// Candidate is one proposed column-to-field mapping with its confidence.
type Candidate struct {
	Field      catalog.Code
	Confidence float64
	Source     Source
}

// Outcome is the audit record of a resolved conflict.
type Outcome struct {
	Field      catalog.Code
	Winner     string
	Loser      string
	Confidence float64
	Reason     string
}

// Conflict resolution reasons, recorded on every reassignment.
const (
	ReasonHigherConfidence  = "higher confidence"
	ReasonBetterAmount      = "better amount candidate"
	ReasonMoreSpecificName  = "more specific field name"
	ReasonBalanceScore      = "better balance score"
	ReasonBalanceConfidence = "balance tie, higher confidence"
	ReasonKeptExisting      = "kept existing mapping"
)
