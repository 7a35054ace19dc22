// Package blobstore stores file attachments in an S3-compatible backend and
// reports transfer progress to the caller.
package blobstore

import (
	"context"
	"io"
	"time"
)

// ProgressFunc receives transfer progress as a percentage between 0 and 100.
type ProgressFunc func(percent float64)

// FileInfo is the metadata recorded in the owning document's files field
// after a successful upload.
type FileInfo struct {
	OrigName    string
	Name        string
	URL         string
	Size        int64
	ContentType string
	Uploaded    time.Time
}

// ToDocument renders the metadata as a document-embeddable map.
func (f *FileInfo) ToDocument() map[string]any {
	return map[string]any{
		"origName":   f.OrigName,
		"name":       f.Name,
		"url":        f.URL,
		"size":       f.Size,
		"type":       f.ContentType,
		"uploadedAt": f.Uploaded.Format(time.RFC3339),
	}
}

// FileInfoFromDocument extracts metadata from a files-field entry. Missing
// fields degrade to zero values.
func FileInfoFromDocument(entry map[string]any) FileInfo {
	f := FileInfo{}
	if s, ok := entry["origName"].(string); ok {
		f.OrigName = s
	}
	if s, ok := entry["name"].(string); ok {
		f.Name = s
	}
	if s, ok := entry["url"].(string); ok {
		f.URL = s
	}
	switch v := entry["size"].(type) {
	case int64:
		f.Size = v
	case float64:
		f.Size = int64(v)
	}
	if s, ok := entry["type"].(string); ok {
		f.ContentType = s
	}
	if s, ok := entry["uploadedAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			f.Uploaded = t
		}
	}
	return f
}

// Store is a blob backend addressed by public URL.
type Store interface {
	// Upload stores the blob under a collision-free name derived from
	// origName's extension and returns its metadata. Progress runs from 0
	// to 100 as bytes are consumed.
	Upload(ctx context.Context, origName string, r io.Reader, size int64, contentType string, progress ProgressFunc) (*FileInfo, error)

	// Download streams the blob behind url into w and returns the byte
	// count. When the backend reports no length, progress jumps to 100 at
	// completion.
	Download(ctx context.Context, url string, w io.Writer, progress ProgressFunc) (int64, error)

	// Delete removes the blob behind url.
	Delete(ctx context.Context, url string) error
}
