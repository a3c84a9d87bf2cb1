package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// ClauseType enumerates the clause catalogue. The telecom-operator types
// (sla, fiber_extension, penalty, duration) come from the contracts this
// system was built around; the rest are general contract law.
type ClauseType string

const (
	ClauseTermination     ClauseType = "termination"
	ClausePayment         ClauseType = "payment"
	ClauseLiability       ClauseType = "liability"
	ClauseConfidentiality ClauseType = "confidentiality"
	ClauseSLA             ClauseType = "sla"
	ClauseFiberExtension  ClauseType = "fiber_extension"
	ClausePenalty         ClauseType = "penalty"
	ClauseDuration        ClauseType = "duration"
)

type ClauseFindingStatus string

const (
	ClauseIdentified   ClauseFindingStatus = "identified"
	ClauseMissing      ClauseFindingStatus = "missing"
	ClauseInconclusive ClauseFindingStatus = "inconclusive"
)

// ClauseFinding is the per-type outcome of one analysis run.
type ClauseFinding struct {
	Type    ClauseType          `json:"type"`
	Status  ClauseFindingStatus `json:"status"`
	Text    string              `json:"text,omitempty"`
	Summary string              `json:"summary,omitempty"`
	Risk    RiskLevel           `json:"risk,omitempty"`
	// Location of the extracted clause inside the normalized text.
	ChunkID   uuid.UUID `json:"chunk_id,omitempty"`
	Seq       int       `json:"seq,omitempty"`
	StartRune int       `json:"start_rune,omitempty"`
	EndRune   int       `json:"end_rune,omitempty"`
	Page      *int      `json:"page,omitempty"`
	// Why the type came back inconclusive, when it did.
	Note string `json:"note,omitempty"`
}

type RiskFlag struct {
	Type           string    `json:"type"`
	Description    string    `json:"description"`
	Severity       RiskLevel `json:"severity"`
	Recommendation string    `json:"recommendation,omitempty"`
}

type AnalysisStatus string

const (
	AnalysisPending  AnalysisStatus = "pending"
	AnalysisRunning  AnalysisStatus = "running"
	AnalysisComplete AnalysisStatus = "complete"
	AnalysisCanceled AnalysisStatus = "canceled"
)

// ContractAnalysis is one run over one document. A later run supersedes
// the previous one; runs are never merged.
type ContractAnalysis struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	UserID     string    `gorm:"column:user_id;not null;index" json:"user_id"`

	Status AnalysisStatus `gorm:"column:status;not null" json:"status"`

	Findings  datatypes.JSON `gorm:"type:jsonb;column:findings" json:"findings"`
	RiskFlags datatypes.JSON `gorm:"type:jsonb;column:risk_flags" json:"risk_flags"`

	TotalClauses    int `gorm:"column:total_clauses" json:"total_clauses"`
	MissingCount    int `gorm:"column:missing_count" json:"missing_count"`
	HighRiskCount   int `gorm:"column:high_risk_count" json:"high_risk_count"`
	MediumRiskCount int `gorm:"column:medium_risk_count" json:"medium_risk_count"`
	LowRiskCount    int `gorm:"column:low_risk_count" json:"low_risk_count"`

	StartedAt   time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (ContractAnalysis) TableName() string { return "contract_analysis" }

func (a *ContractAnalysis) SetFindings(fs []ClauseFinding) error {
	if fs == nil {
		fs = []ClauseFinding{}
	}
	b, err := json.Marshal(fs)
	if err != nil {
		return err
	}
	a.Findings = datatypes.JSON(b)
	a.recount(fs)
	return nil
}

func (a *ContractAnalysis) FindingList() []ClauseFinding {
	if len(a.Findings) == 0 {
		return nil
	}
	var fs []ClauseFinding
	if err := json.Unmarshal(a.Findings, &fs); err != nil {
		return nil
	}
	return fs
}

func (a *ContractAnalysis) SetRiskFlags(flags []RiskFlag) error {
	if flags == nil {
		flags = []RiskFlag{}
	}
	b, err := json.Marshal(flags)
	if err != nil {
		return err
	}
	a.RiskFlags = datatypes.JSON(b)
	return nil
}

func (a *ContractAnalysis) RiskFlagList() []RiskFlag {
	if len(a.RiskFlags) == 0 {
		return nil
	}
	var flags []RiskFlag
	if err := json.Unmarshal(a.RiskFlags, &flags); err != nil {
		return nil
	}
	return flags
}

// MissingTypes is the catalogue complement recorded by the run.
func (a *ContractAnalysis) MissingTypes() []ClauseType {
	var out []ClauseType
	for _, f := range a.FindingList() {
		if f.Status == ClauseMissing {
			out = append(out, f.Type)
		}
	}
	return out
}

func (a *ContractAnalysis) recount(fs []ClauseFinding) {
	a.TotalClauses, a.MissingCount = 0, 0
	a.HighRiskCount, a.MediumRiskCount, a.LowRiskCount = 0, 0, 0
	for _, f := range fs {
		switch f.Status {
		case ClauseIdentified:
			a.TotalClauses++
			switch f.Risk {
			case RiskHigh:
				a.HighRiskCount++
			case RiskMedium:
				a.MediumRiskCount++
			case RiskLow:
				a.LowRiskCount++
			}
		case ClauseMissing:
			a.MissingCount++
		}
	}
}
