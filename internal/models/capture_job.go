package models

import "time"

type CaptureJob struct {
	ID        string         `json:"id"`
	Rotation  int            `json:"rotation"`
	Image     []byte         `json:"image,omitempty"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	Result    *CaptureResult `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
