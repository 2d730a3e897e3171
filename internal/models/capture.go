package models

import "time"

// CaptureResult describes a persisted, shape-cropped picture.
type CaptureResult struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	URL        string    `json:"url,omitempty"`
	Format     string    `json:"format"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Rotation   int       `json:"rotation"`
	FileSize   int64     `json:"file_size"`
	CapturedAt time.Time `json:"captured_at"`
	Cached     bool      `json:"cached"`
}

// MediaEntry is one picture registered in the media index.
type MediaEntry struct {
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	MimeType   string    `json:"mime_type"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	FileSize   int64     `json:"file_size"`
	URL        string    `json:"url,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// StoredPicture is what the picture store reports after a write.
type StoredPicture struct {
	Filename  string
	Path      string
	Size      int64
	CreatedAt time.Time
}
