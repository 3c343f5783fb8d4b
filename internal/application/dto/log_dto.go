package dto

import (
	"encoding/json"
	"time"
)

// LogEntryResponse entrada de bitácora con mensaje legible.
type LogEntryResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	UserName  string          `json:"userName"`
	Action    string          `json:"action"`
	Entity    *string         `json:"entity,omitempty"`
	EntityID  *string         `json:"entityId,omitempty"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// LogListResponse respuesta de GET /api/logs.
type LogListResponse struct {
	Logs       []LogEntryResponse `json:"logs"`
	Pagination Pagination         `json:"pagination"`
}
