package model

import (
	"encoding/json"
	"time"
)

type ImportStatus string

const (
	ImportProcessing ImportStatus = "processing"
	ImportCompleted  ImportStatus = "completed"
	ImportFailed     ImportStatus = "failed"
)

// ImportHistory records one executed import run.
type ImportHistory struct {
	ID            string
	EntityType    EntityType
	FileName      string
	FileSize      int64
	MappingConfig json.RawMessage
	Status        ImportStatus
	TotalRows     int
	SuccessCount  int
	ErrorCount    int
	SkippedCount  int
	Results       json.RawMessage
	CreatedBy     string
	StartedAt     time.Time
	CompletedAt   *time.Time
}
