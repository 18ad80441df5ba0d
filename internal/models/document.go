package models

import "time"

// DocumentContext is the document-availability gate for the conversation. It is set once per
// successful upload notification and owned exclusively by the session; adapters only read it.
type DocumentContext struct {
	Present      bool
	FileName     string
	DocumentType string
	Confidence   float64
}

// UploadResult is the classification returned by the upload collaborator for a submitted file.
type UploadResult struct {
	Success      bool
	DocumentType string
	Confidence   float64
	Message      string
}

// DocumentRecord is one entry in the persistent upload log shown in the upload panel.
type DocumentRecord struct {
	ID           string
	FileName     string
	DocumentType string
	Confidence   float64
	UploadedAt   time.Time
}
