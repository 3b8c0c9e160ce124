package model

import "time"

// Upload is a stored source file: raw delimited text plus display metadata.
// The binary-spreadsheet-to-text conversion happens upstream; by the time an
// Upload exists its content is already decoded text.
type Upload struct {
	ID          string // uuid
	Filename    string
	ContentType string
	Content     string
	CreatedAt   time.Time
}
