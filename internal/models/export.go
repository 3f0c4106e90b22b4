package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ExportStatus статус выгрузки результата запроса
type ExportStatus string

const (
	StatusPending   ExportStatus = "pending"
	StatusCompleted ExportStatus = "completed"
	StatusFailed    ExportStatus = "failed"
)

// CanTransitionTo reports whether an export may move to the next status.
// Completed and failed exports are final.
func (s ExportStatus) CanTransitionTo(next ExportStatus) bool {
	return s == StatusPending && (next == StatusCompleted || next == StatusFailed)
}

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Export represents a stored rendering of one query result
type Export struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	RequestID   string         `json:"request_id" gorm:"size:36;uniqueIndex;not null"`
	Operation   string         `json:"operation" gorm:"size:100;not null;index"`
	Parameters  JSON           `json:"parameters,omitempty" gorm:"type:text"`
	Format      string         `json:"format" gorm:"size:10;not null"`
	Status      ExportStatus   `json:"status" gorm:"size:20;not null;default:'pending'"`
	FileKey     string         `json:"file_key,omitempty" gorm:"size:255"`
	RowCount    int            `json:"row_count"`
	Error       string         `json:"error,omitempty" gorm:"size:1000"`
	GeneratedAt *time.Time     `json:"generated_at,omitempty"`
}

// JSON is a custom type for handling JSON columns
type JSON map[string]interface{}

// Value implements the driver.Valuer interface for JSON
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for JSON
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSON", value)
	}

	var out JSON
	if err := json.Unmarshal(bytes, &out); err != nil {
		return err
	}
	*j = out
	return nil
}

// IsEmpty returns true when no parameters are stored
func (j JSON) IsEmpty() bool {
	return len(j) == 0
}

// TableName specifies the table name for the Export model
func (Export) TableName() string {
	return "exports"
}

// IsCompleted returns true if the file is ready for download
func (e *Export) IsCompleted() bool {
	return e.Status == StatusCompleted
}

// HasFile returns true if a stored file is attached
func (e *Export) HasFile() bool {
	return e.FileKey != ""
}

// Extension returns the file extension for the export format
func (e *Export) Extension() string {
	if e.Format == FormatCSV {
		return "csv"
	}
	return "xlsx"
}
