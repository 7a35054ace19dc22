// Package filetransfer coordinates file attachments between the blob store
// and the owning document's files field, keeping the two consistent and
// reporting per-file transfer progress.
package filetransfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"recordkeeper/internal/blobstore"
	"recordkeeper/internal/client/notify"
	"recordkeeper/internal/common"
	"recordkeeper/internal/docstore"
	"recordkeeper/internal/logging"
)

// Upload is one file selected for attachment.
type Upload struct {
	Name        string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// ProgressFunc reports per-file progress; name identifies the file so the
// sequential upload stays unambiguous.
type ProgressFunc func(name string, percent float64)

// Options carries the handler's collaborators.
type Options struct {
	Store    docstore.Store
	Blobs    blobstore.Store
	Notifier notify.Notifier
	Logger   logging.Logger
	Progress ProgressFunc
}

// Handler manages the files field of one bound document.
type Handler struct {
	opts Options

	collection  string
	docID       string
	files       []blobstore.FileInfo
	isUploading bool
}

func NewHandler(collection string, opts Options) *Handler {
	return &Handler{opts: opts, collection: collection, docID: common.NewDocumentID}
}

// Bind attaches the handler to a document and its current files entries.
func (h *Handler) Bind(docID string, fileEntries []any) {
	h.docID = docID
	h.files = h.files[:0]
	for _, entry := range fileEntries {
		if m, ok := entry.(map[string]any); ok {
			h.files = append(h.files, blobstore.FileInfoFromDocument(m))
		}
	}
}

// Files returns the in-memory attachment list, which mirrors the parent
// document's files field as of the last successful update.
func (h *Handler) Files() []blobstore.FileInfo {
	out := make([]blobstore.FileInfo, len(h.files))
	copy(out, h.files)
	return out
}

// Attach uploads the given files sequentially and appends their metadata to
// the parent document in one update. Files go up one at a time: slower than
// parallel, but progress is attributable to exactly one file at any moment.
// The in-memory list changes only when the document update succeeds; an
// upload whose metadata never reaches the document is an orphaned blob,
// logged for out-of-band cleanup.
func (h *Handler) Attach(ctx context.Context, uploads []Upload) {
	if h.isUploading {
		h.opts.Notifier.Notify(notify.Warning, "an upload is already in progress")
		return
	}
	if h.docID == common.NewDocumentID {
		h.opts.Notifier.Notify(notify.Warning, "save the record before attaching files")
		return
	}
	if len(uploads) == 0 {
		return
	}

	h.isUploading = true
	defer func() { h.isUploading = false }()

	uploaded := make([]*blobstore.FileInfo, 0, len(uploads))
	for _, u := range uploads {
		info, err := h.opts.Blobs.Upload(ctx, u.Name, u.Reader, u.Size, u.ContentType, h.progressFor(u.Name))
		if err != nil {
			h.logOrphans(ctx, uploaded)
			h.opts.Notifier.Notify(notify.Negative, fmt.Sprintf("could not upload %s: %v", u.Name, err))
			return
		}
		uploaded = append(uploaded, info)
	}

	entries := h.filesField()
	for _, info := range uploaded {
		entries = append(entries, info.ToDocument())
	}

	if err := h.opts.Store.Update(ctx, h.collection, h.docID, map[string]any{"files": entries}); err != nil {
		h.logOrphans(ctx, uploaded)
		h.opts.Notifier.Notify(notify.Negative, fmt.Sprintf("could not record uploaded files: %v", err))
		return
	}

	for _, info := range uploaded {
		h.files = append(h.files, *info)
	}
	h.opts.Notifier.Notify(notify.Positive, fmt.Sprintf("%d file(s) attached", len(uploaded)))
}

// Remove detaches the file behind url. The document's files field is the
// source of truth: the metadata entry goes first, and only then the blob. A
// blob-delete failure is logged for reconciliation but never resurrects the
// entry.
func (h *Handler) Remove(ctx context.Context, url string) {
	if h.docID == common.NewDocumentID {
		h.opts.Notifier.Notify(notify.Warning, "record has no stored files")
		return
	}

	idx := -1
	for i := range h.files {
		if h.files[i].URL == url {
			idx = i
			break
		}
	}
	if idx < 0 {
		h.opts.Notifier.Notify(notify.Warning, "file is not attached to this record")
		return
	}

	entries := make([]any, 0, len(h.files)-1)
	for i := range h.files {
		if i != idx {
			entries = append(entries, h.files[i].ToDocument())
		}
	}

	if err := h.opts.Store.Update(ctx, h.collection, h.docID, map[string]any{"files": entries}); err != nil {
		h.opts.Notifier.Notify(notify.Negative, fmt.Sprintf("could not detach file: %v", err))
		return
	}
	h.files = append(h.files[:idx], h.files[idx+1:]...)

	if err := h.opts.Blobs.Delete(ctx, url); err != nil {
		if h.opts.Logger != nil {
			h.opts.Logger.Warn(ctx, "blob left behind after detach", "url", url, "error", err)
		}
	}
	h.opts.Notifier.Notify(notify.Positive, "file detached")
}

// Download fetches the file behind url into destDir under its original
// filename and returns the written path.
func (h *Handler) Download(ctx context.Context, url string, destDir string) (string, error) {
	var info *blobstore.FileInfo
	for i := range h.files {
		if h.files[i].URL == url {
			info = &h.files[i]
			break
		}
	}
	if info == nil {
		return "", fmt.Errorf("file is not attached to this record")
	}

	name := info.OrigName
	if name == "" {
		name = info.Name
	}
	path := filepath.Join(destDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("could not create %s: %w", path, err)
	}
	defer out.Close()

	if _, err := h.opts.Blobs.Download(ctx, url, out, h.progressFor(name)); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (h *Handler) filesField() []any {
	entries := make([]any, 0, len(h.files))
	for i := range h.files {
		entries = append(entries, h.files[i].ToDocument())
	}
	return entries
}

func (h *Handler) progressFor(name string) blobstore.ProgressFunc {
	if h.opts.Progress == nil {
		return nil
	}
	return func(pct float64) { h.opts.Progress(name, pct) }
}

func (h *Handler) logOrphans(ctx context.Context, uploaded []*blobstore.FileInfo) {
	if h.opts.Logger == nil {
		return
	}
	for _, info := range uploaded {
		h.opts.Logger.Warn(ctx, "orphaned blob: metadata never reached the document",
			"url", info.URL, "orig_name", info.OrigName)
	}
}
