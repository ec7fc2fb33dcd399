package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Medicine is a single catalog record.
// ID is assigned by the store; MedicineID is the business identifier
// generated during ingestion.
type Medicine struct {
	ID         string          `json:"id" gorm:"column:id;primaryKey;type:varchar(36)"`
	MedicineID string          `json:"medicineid" gorm:"column:medicineid;type:varchar(36);uniqueIndex;not null"`
	Name       string          `json:"name" gorm:"column:name;not null"`
	Price      decimal.Decimal `json:"price" gorm:"column:price;type:numeric(10,3);not null"`
}

// TableName pins the gorm table name.
func (Medicine) TableName() string {
	return "medicines"
}

// RunState is a step of the ingestion state machine.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateLocating  RunState = "locating"
	StateFetching  RunState = "fetching"
	StateParsing   RunState = "parsing"
	StateWriting   RunState = "writing"
	StateCompleted RunState = "completed"
	StateFailed    RunState = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// RunSummary is the outcome of one ingestion attempt.
type RunSummary struct {
	RecordsWritten int       `json:"recordsWritten"`
	RecordsSkipped int       `json:"recordsSkipped"`
	RecordsDeleted int       `json:"recordsDeleted"`
	DuplicateNames int       `json:"duplicateNames"`
	DownloadURL    string    `json:"downloadUrl,omitempty"`
	State          RunState  `json:"state"`
	FailedIn       RunState  `json:"failedIn,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	Error          string    `json:"error,omitempty"`
}
