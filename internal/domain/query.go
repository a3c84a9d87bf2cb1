package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Citation points a generated answer back at the chunk that supports it.
type Citation struct {
	DocumentID uuid.UUID `json:"document_id"`
	ChunkID    uuid.UUID `json:"chunk_id"`
	Seq        int       `json:"seq"`
	StartRune  int       `json:"start_rune"`
	EndRune    int       `json:"end_rune"`
	Page       *int      `json:"page,omitempty"`
	Score      float64   `json:"score"`
}

// IntentKind labels what a question is about, derived from keyword
// patterns over the question text.
type IntentKind string

const (
	IntentSLA          IntentKind = "sla"
	IntentFiber        IntentKind = "fiber"
	IntentPenalty      IntentKind = "penalty"
	IntentDuration     IntentKind = "duration"
	IntentContractInfo IntentKind = "contract_info"
	IntentGeneral      IntentKind = "general"
)

// QuestionForm is the interrogative shape of the question.
type QuestionForm string

const (
	FormWhat    QuestionForm = "what"
	FormHowMuch QuestionForm = "how_much"
	FormWhen    QuestionForm = "when"
	FormWhere   QuestionForm = "where"
	FormHow     QuestionForm = "how"
	FormWhy     QuestionForm = "why"
	FormGeneral QuestionForm = "general"
)

// QueryEntities are literal values lifted out of the question text.
type QueryEntities struct {
	Numbers      []string `json:"numbers,omitempty"`
	TimeUnits    []string `json:"time_units,omitempty"`
	Monetary     []string `json:"monetary_values,omitempty"`
	ContractRefs []string `json:"contract_refs,omitempty"`
}

// QueryIntent is what the intent classifier read out of the question.
// Kind is the dominant intent; Kinds lists every intent that matched,
// strongest first.
type QueryIntent struct {
	Kind     IntentKind    `json:"kind"`
	Kinds    []IntentKind  `json:"kinds,omitempty"`
	Form     QuestionForm  `json:"form"`
	Entities QueryEntities `json:"entities"`
}

// QueryResponse is immutable after creation and retained as history.
// FailureKind is empty for healthy answers; a non-empty value marks a
// degraded no-answer response and names the failure taxonomy kind, so
// "the document does not say" is never confused with "the tooling broke".
type QueryResponse struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"column:user_id;not null;index" json:"user_id"`
	SessionID  uuid.UUID `gorm:"type:uuid;column:session_id;index" json:"session_id"`
	DocumentID uuid.UUID `gorm:"type:uuid;column:document_id;index" json:"document_id"`

	Question   string         `gorm:"column:question;type:text;not null" json:"question"`
	Answer     string         `gorm:"column:answer;type:text;not null" json:"answer"`
	Citations  datatypes.JSON `gorm:"type:jsonb;column:citations" json:"citations"`
	Intent     datatypes.JSON `gorm:"type:jsonb;column:intent" json:"intent"`
	Confidence float64        `gorm:"column:confidence;not null" json:"confidence"`

	FailureKind string `gorm:"column:failure_kind" json:"failure_kind,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (QueryResponse) TableName() string { return "query_response" }

func (r *QueryResponse) SetCitations(cs []Citation) error {
	if cs == nil {
		cs = []Citation{}
	}
	b, err := json.Marshal(cs)
	if err != nil {
		return err
	}
	r.Citations = datatypes.JSON(b)
	return nil
}

func (r *QueryResponse) CitationList() []Citation {
	if len(r.Citations) == 0 {
		return nil
	}
	var cs []Citation
	if err := json.Unmarshal(r.Citations, &cs); err != nil {
		return nil
	}
	return cs
}

func (r *QueryResponse) SetIntent(in QueryIntent) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	r.Intent = datatypes.JSON(b)
	return nil
}

func (r *QueryResponse) IntentView() *QueryIntent {
	if len(r.Intent) == 0 {
		return nil
	}
	var in QueryIntent
	if err := json.Unmarshal(r.Intent, &in); err != nil {
		return nil
	}
	return &in
}
