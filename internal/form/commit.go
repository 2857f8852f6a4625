package form

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lovenotes/anniversary/internal/assets"
	"github.com/lovenotes/anniversary/internal/content"
	"github.com/lovenotes/anniversary/pkg/logger"
)

// MergeWriter persists an update with merge semantics.
type MergeWriter interface {
	Save(ctx context.Context, updates content.Document) error
}

// CommitRequest carries everything one save needs.
type CommitRequest struct {
	Schema   content.Schema
	Values   map[string]string // submitted control values keyed by field id
	Pending  *PendingUploads
	Uploader assets.Uploader
	Store    MergeWriter
	Progress *Progress // optional
}

var ErrNoUploader = errors.New("no asset uploader configured")

// UploadError reports the first failed upload of a save. Uploaded holds the
// URLs of uploads that did complete; they were never written to the document.
type UploadError struct {
	Field    string
	Err      error
	Uploaded map[string]string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Field, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// WriteError reports a failed merge write after all uploads succeeded.
// Uploaded lists the now orphaned image URLs.
type WriteError struct {
	Err      error
	Uploaded map[string]string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write content: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Commit runs a save in two ordered phases. First every staged image is
// uploaded concurrently; the phase fails on the first error and nothing is
// written. Only when all uploads succeed are the staged entries consumed and
// the submitted values, together with the new image URLs, merge-written.
// It returns the update that was written.
func Commit(ctx context.Context, req CommitRequest) (content.Document, error) {
	var snap Snapshot
	if req.Pending != nil {
		snap = req.Pending.Snapshot()
	}

	urls, err := uploadAll(ctx, snap, req.Uploader, req.Progress)
	if err != nil {
		return nil, err
	}
	if req.Pending != nil {
		req.Pending.Consume(snap)
	}

	updates := Collect(req.Schema, req.Values)
	for id, url := range urls {
		updates[id] = url
	}
	if err := req.Store.Save(ctx, updates); err != nil {
		return nil, &WriteError{Err: err, Uploaded: urls}
	}
	return updates, nil
}

func uploadAll(ctx context.Context, snap Snapshot, up assets.Uploader, progress *Progress) (map[string]string, error) {
	urls := make(map[string]string, len(snap))
	if len(snap) == 0 {
		return urls, nil
	}
	if up == nil {
		return nil, ErrNoUploader
	}

	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if progress != nil {
		progress.Reset(ids)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		payload, _ := snap.Payload(id)
		g.Go(func() error {
			url, err := up.Upload(gctx, payload, func(pct int) {
				if progress != nil {
					progress.Set(id, pct)
				}
			})
			if err != nil {
				return &UploadError{Field: id, Err: err}
			}
			mu.Lock()
			urls[id] = url
			mu.Unlock()
			logger.Debugf("uploaded %s (%d bytes) -> %s", id, len(payload.Data), url)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var ue *UploadError
		if errors.As(err, &ue) {
			ue.Uploaded = urls
		}
		return nil, err
	}
	return urls, nil
}
