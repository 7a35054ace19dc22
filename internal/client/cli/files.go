package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"

	"recordkeeper/internal/client/docform"
	"recordkeeper/internal/client/filetransfer"
	"recordkeeper/internal/client/notify"
	"recordkeeper/internal/filex"
)

// AttachFiles uploads local files to the open record: "attach <path> ...".
func (a *App) AttachFiles(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: attach <path> [<path> ...]")
	}
	if err := a.bindTransfer(); err != nil {
		return err
	}

	uploads := make([]filetransfer.Upload, 0, len(args))
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("could not open %s: %w", path, err)
		}
		defer f.Close()

		st, err := f.Stat()
		if err != nil {
			return fmt.Errorf("could not stat %s: %w", path, err)
		}

		uploads = append(uploads, filetransfer.Upload{
			Name:        filepath.Base(path),
			Reader:      f,
			Size:        st.Size(),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
		})
	}

	a.transfer.Attach(ctx, uploads)
	a.refreshOpenRecord(ctx)
	return nil
}

// ListFiles prints the attachments of the open record.
func (a *App) ListFiles(ctx context.Context) error {
	if err := a.bindTransfer(); err != nil {
		return err
	}

	files := a.transfer.Files()
	if len(files) == 0 {
		printlnFn("No files attached.")
		return nil
	}

	table := tablewriter.NewWriter(a.out)
	table.SetHeader([]string{"Name", "Size", "Type", "Uploaded", "URL"})
	for _, f := range files {
		table.Append([]string{
			f.OrigName,
			fmt.Sprintf("%d", f.Size),
			f.ContentType,
			f.Uploaded.Format(time.RFC3339),
			f.URL,
		})
	}
	table.Render()
	return nil
}

// DownloadFile saves an attachment into the download directory under its
// original name: "download <url>".
func (a *App) DownloadFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: download <url>")
	}
	if err := a.bindTransfer(); err != nil {
		return err
	}

	dir, err := filex.EnsureSubDir(a.config.DownloadDir)
	if err != nil {
		return err
	}

	path, err := a.transfer.Download(ctx, args[0], dir)
	if err != nil {
		return err
	}
	a.notifier.Notify(notify.Positive, "saved to "+path)
	return nil
}

// DetachFile removes an attachment from the open record: "detach <url>".
func (a *App) DetachFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: detach <url>")
	}
	if err := a.bindTransfer(); err != nil {
		return err
	}

	a.transfer.Remove(ctx, args[0])
	a.refreshOpenRecord(ctx)
	return nil
}

// refreshOpenRecord reloads the form after a file operation changed the
// stored files field behind its back. A dirty form is left alone; the user's
// edits outrank a fresher files list.
func (a *App) refreshOpenRecord(ctx context.Context) {
	if a.form == nil || a.form.State() != docform.Clean {
		return
	}
	a.form.Bind(ctx, a.form.ID())
}
