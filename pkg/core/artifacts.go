// Package core provides the shared error taxonomy and value types for ecp-runner.
package core

import (
	"fmt"
	"os"
	"path/filepath"
)

// Attachment represents an artifact captured from the device
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, source
	ContentType string `json:"contentType"` // MIME type: image/jpeg, application/xml
	Path        string `json:"path"`        // File path, empty until saved
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentSource     = "source"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeJPEG = "image/jpeg"
	ContentTypeXML  = "application/xml"
)

// NewScreenshotAttachment creates a screenshot attachment.
// Development screenshots are served as JPEG.
func NewScreenshotAttachment(data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypeJPEG,
		Body:        data,
	}
}

// NewSourceAttachment creates an app-ui source attachment
func NewSourceAttachment(data []byte) Attachment {
	return Attachment{
		Name:        AttachmentSource,
		ContentType: ContentTypeXML,
		Body:        data,
	}
}

// Save writes the attachment body to path, creating parent directories.
func (a *Attachment) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, a.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", a.Name, err)
	}
	a.Path = path
	return nil
}

// Extension returns the file extension matching the content type.
func (a Attachment) Extension() string {
	switch a.ContentType {
	case ContentTypeJPEG:
		return ".jpg"
	case ContentTypePNG:
		return ".png"
	case ContentTypeXML:
		return ".xml"
	default:
		return ""
	}
}
