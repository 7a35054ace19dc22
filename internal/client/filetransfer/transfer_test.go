package filetransfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordkeeper/internal/blobstore"
	"recordkeeper/internal/client/notify"
	"recordkeeper/internal/common"
	"recordkeeper/internal/docstore"
)

type fakeBlobs struct {
	uploads   int
	failAfter int // fail the n-th upload (1-based); 0 means never
	deleted   []string
	deleteErr error
	content   string
}

func (f *fakeBlobs) Upload(ctx context.Context, origName string, r io.Reader, size int64, contentType string, progress blobstore.ProgressFunc) (*blobstore.FileInfo, error) {
	f.uploads++
	if f.failAfter > 0 && f.uploads >= f.failAfter {
		return nil, errors.New("connection reset")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	if progress != nil {
		progress(100)
	}
	return &blobstore.FileInfo{
		OrigName:    origName,
		Name:        fmt.Sprintf("stored-%d", f.uploads),
		URL:         fmt.Sprintf("http://blobs/b/stored-%d", f.uploads),
		Size:        size,
		ContentType: contentType,
		Uploaded:    time.Now(),
	}, nil
}

func (f *fakeBlobs) Download(ctx context.Context, url string, w io.Writer, progress blobstore.ProgressFunc) (int64, error) {
	n, err := io.Copy(w, strings.NewReader(f.content))
	if progress != nil {
		progress(100)
	}
	return n, err
}

func (f *fakeBlobs) Delete(ctx context.Context, url string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, url)
	return nil
}

type fakeDocs struct {
	updates   []map[string]any
	updateErr error
}

func (f *fakeDocs) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	return "", nil
}
func (f *fakeDocs) Read(ctx context.Context, collection, id string) (*docstore.Document, error) {
	return nil, common.ErrNotFound
}
func (f *fakeDocs) Update(ctx context.Context, collection, id string, data map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, data)
	return nil
}
func (f *fakeDocs) Delete(ctx context.Context, collection, id string) error { return nil }
func (f *fakeDocs) ListAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	return nil, nil
}
func (f *fakeDocs) ListFiltered(ctx context.Context, collection string, filters []docstore.Filter) ([]docstore.Document, error) {
	return nil, nil
}
func (f *fakeDocs) ListPaged(ctx context.Context, collection string, pageSize int, cursor *docstore.Cursor, filters []docstore.Filter, orderBy string) ([]docstore.Document, *docstore.Cursor, error) {
	return nil, nil, nil
}

type recorder struct {
	notes []string
	sevs  []notify.Severity
}

func (r *recorder) Notify(s notify.Severity, m string) {
	r.sevs = append(r.sevs, s)
	r.notes = append(r.notes, m)
}

func upload(name, content string) Upload {
	return Upload{Name: name, Reader: bytes.NewReader([]byte(content)), Size: int64(len(content)), ContentType: "text/plain"}
}

func TestAttach_RejectsUnsavedRecord(t *testing.T) {
	docs := &fakeDocs{}
	notes := &recorder{}
	h := NewHandler("books", Options{Store: docs, Blobs: &fakeBlobs{}, Notifier: notes})

	h.Attach(context.Background(), []Upload{upload("a.txt", "x")})

	assert.Empty(t, docs.updates)
	require.Len(t, notes.sevs, 1)
	assert.Equal(t, notify.Warning, notes.sevs[0])
}

func TestAttach_SequentialUploadThenSingleUpdate(t *testing.T) {
	docs := &fakeDocs{}
	blobs := &fakeBlobs{}
	notes := &recorder{}
	var progressed []string
	h := NewHandler("books", Options{
		Store: docs, Blobs: blobs, Notifier: notes,
		Progress: func(name string, pct float64) {
			progressed = append(progressed, fmt.Sprintf("%s:%.0f", name, pct))
		},
	})
	h.Bind("b1", nil)

	h.Attach(context.Background(), []Upload{upload("a.txt", "aa"), upload("b.txt", "bb")})

	assert.Equal(t, 2, blobs.uploads)
	// one update carrying both entries
	require.Len(t, docs.updates, 1)
	entries := docs.updates[0]["files"].([]any)
	require.Len(t, entries, 2)

	files := h.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].OrigName)
	assert.Equal(t, "b.txt", files[1].OrigName)

	assert.Equal(t, []string{"a.txt:100", "b.txt:100"}, progressed)
}

func TestAttach_AppendsToExistingEntries(t *testing.T) {
	docs := &fakeDocs{}
	h := NewHandler("books", Options{Store: docs, Blobs: &fakeBlobs{}, Notifier: &recorder{}})
	h.Bind("b1", []any{map[string]any{"origName": "old.pdf", "url": "http://blobs/b/old"}})

	h.Attach(context.Background(), []Upload{upload("new.txt", "x")})

	require.Len(t, docs.updates, 1)
	entries := docs.updates[0]["files"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, "old.pdf", entries[0].(map[string]any)["origName"])
	assert.Equal(t, "new.txt", entries[1].(map[string]any)["origName"])
}

func TestAttach_UploadFailureStopsBeforeUpdate(t *testing.T) {
	docs := &fakeDocs{}
	blobs := &fakeBlobs{failAfter: 2}
	notes := &recorder{}
	h := NewHandler("books", Options{Store: docs, Blobs: blobs, Notifier: notes})
	h.Bind("b1", nil)

	h.Attach(context.Background(), []Upload{upload("a.txt", "x"), upload("b.txt", "y")})

	assert.Empty(t, docs.updates)
	assert.Empty(t, h.Files())
	require.NotEmpty(t, notes.sevs)
	assert.Equal(t, notify.Negative, notes.sevs[len(notes.sevs)-1])
}

func TestAttach_UpdateFailureKeepsListUnchanged(t *testing.T) {
	docs := &fakeDocs{updateErr: fmt.Errorf("%w: forbidden", common.ErrStorage)}
	notes := &recorder{}
	h := NewHandler("books", Options{Store: docs, Blobs: &fakeBlobs{}, Notifier: notes})
	h.Bind("b1", nil)

	h.Attach(context.Background(), []Upload{upload("a.txt", "x")})

	// upload happened, metadata did not land: the list must not lie
	assert.Empty(t, h.Files())
	assert.Equal(t, notify.Negative, notes.sevs[len(notes.sevs)-1])
}

func TestRemove_DocumentFirstThenBlob(t *testing.T) {
	docs := &fakeDocs{}
	blobs := &fakeBlobs{}
	h := NewHandler("books", Options{Store: docs, Blobs: blobs, Notifier: &recorder{}})
	h.Bind("b1", []any{
		map[string]any{"origName": "a.txt", "url": "http://blobs/b/a"},
		map[string]any{"origName": "b.txt", "url": "http://blobs/b/b"},
	})

	h.Remove(context.Background(), "http://blobs/b/a")

	require.Len(t, docs.updates, 1)
	entries := docs.updates[0]["files"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.txt", entries[0].(map[string]any)["origName"])

	assert.Equal(t, []string{"http://blobs/b/a"}, blobs.deleted)
	require.Len(t, h.Files(), 1)
	assert.Equal(t, "b.txt", h.Files()[0].OrigName)
}

func TestRemove_BlobDeleteFailureDoesNotResurrectEntry(t *testing.T) {
	docs := &fakeDocs{}
	blobs := &fakeBlobs{deleteErr: errors.New("gone already")}
	h := NewHandler("books", Options{Store: docs, Blobs: blobs, Notifier: &recorder{}})
	h.Bind("b1", []any{map[string]any{"origName": "a.txt", "url": "http://blobs/b/a"}})

	h.Remove(context.Background(), "http://blobs/b/a")

	// metadata removal stands even though the blob survived
	require.Len(t, docs.updates, 1)
	assert.Empty(t, h.Files())
}

func TestRemove_UpdateFailureKeepsEverything(t *testing.T) {
	docs := &fakeDocs{updateErr: fmt.Errorf("%w: forbidden", common.ErrStorage)}
	blobs := &fakeBlobs{}
	h := NewHandler("books", Options{Store: docs, Blobs: blobs, Notifier: &recorder{}})
	h.Bind("b1", []any{map[string]any{"origName": "a.txt", "url": "http://blobs/b/a"}})

	h.Remove(context.Background(), "http://blobs/b/a")

	assert.Empty(t, blobs.deleted)
	assert.Len(t, h.Files(), 1)
}

func TestDownload_SavesUnderOriginalName(t *testing.T) {
	blobs := &fakeBlobs{content: "file body"}
	h := NewHandler("books", Options{Store: &fakeDocs{}, Blobs: blobs, Notifier: &recorder{}})
	h.Bind("b1", []any{map[string]any{"origName": "report.pdf", "url": "http://blobs/b/x"}})

	dir := t.TempDir()
	path, err := h.Download(context.Background(), "http://blobs/b/x", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "report.pdf"), path)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file body", string(body))
}

func TestDownload_UnknownURL(t *testing.T) {
	h := NewHandler("books", Options{Store: &fakeDocs{}, Blobs: &fakeBlobs{}, Notifier: &recorder{}})
	h.Bind("b1", nil)

	_, err := h.Download(context.Background(), "http://blobs/b/none", t.TempDir())
	assert.Error(t, err)
}
