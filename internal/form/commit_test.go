package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lovenotes/anniversary/internal/assets"
	"github.com/lovenotes/anniversary/internal/content"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error // keyed by payload name
}

func (f *fakeUploader) Upload(ctx context.Context, p assets.Payload, progress assets.ProgressFunc) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p.Name)
	f.mu.Unlock()
	progress(0)
	if err := f.fail[p.Name]; err != nil {
		return "", err
	}
	progress(100)
	return "https://img.example/" + p.Name, nil
}

func (f *fakeUploader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingStore struct {
	doc    content.Document
	writes int
	err    error
}

func (s *recordingStore) Save(ctx context.Context, updates content.Document) error {
	s.writes++
	if s.err != nil {
		return s.err
	}
	if s.doc == nil {
		s.doc = content.Document{}
	}
	s.doc.Merge(updates)
	return nil
}

func TestCommitWithoutPendingSkipsUploads(t *testing.T) {
	defer goleak.VerifyNone(t)

	up := &fakeUploader{}
	store := &recordingStore{doc: content.Document{"memory-1-img": "https://old/1.png"}}
	written, err := Commit(context.Background(), CommitRequest{
		Schema:   content.DefaultSchema(),
		Values:   map[string]string{"hero-name-1": "Ria"},
		Pending:  NewPendingUploads(),
		Uploader: up,
		Store:    store,
	})
	require.NoError(t, err)
	require.Zero(t, up.callCount())
	require.Equal(t, content.Document{"hero-name-1": "Ria"}, written)
	require.Equal(t, "https://old/1.png", store.doc["memory-1-img"])
}

func TestCommitUploadsEveryPendingImage(t *testing.T) {
	defer goleak.VerifyNone(t)

	pending := NewPendingUploads()
	pending.Stage("hero-scroll-1", assets.Payload{Name: "one.jpg"})
	pending.Stage("polaroid-2-img", assets.Payload{Name: "two.jpg"})
	up := &fakeUploader{}
	store := &recordingStore{}
	progress := NewProgress()

	_, err := Commit(context.Background(), CommitRequest{
		Schema:   content.DefaultSchema(),
		Values:   map[string]string{"letter-salutation": "Dear"},
		Pending:  pending,
		Uploader: up,
		Store:    store,
		Progress: progress,
	})
	require.NoError(t, err)
	require.Equal(t, 2, up.callCount())
	require.Equal(t, 1, store.writes)
	require.Zero(t, pending.Len())

	want := content.Document{
		"letter-salutation": "Dear",
		"hero-scroll-1":     "https://img.example/one.jpg",
		"polaroid-2-img":    "https://img.example/two.jpg",
	}
	if diff := cmp.Diff(want, store.doc); diff != "" {
		t.Fatalf("stored document mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, map[string]int{"hero-scroll-1": 100, "polaroid-2-img": 100}, progress.Snapshot())
}

func TestCommitUploadFailureWritesNothing(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("network connection failed")
	pending := NewPendingUploads()
	pending.Stage("memory-1-img", assets.Payload{Name: "ok.jpg"})
	pending.Stage("memory-2-img", assets.Payload{Name: "bad.jpg"})
	up := &fakeUploader{fail: map[string]error{"bad.jpg": boom}}
	before := content.Document{"hero-name-1": "Aashu", "memory-1-img": "https://old/1.png"}
	store := &recordingStore{doc: before.Clone()}

	_, err := Commit(context.Background(), CommitRequest{
		Schema:   content.DefaultSchema(),
		Values:   map[string]string{"hero-name-1": "Changed"},
		Pending:  pending,
		Uploader: up,
		Store:    store,
	})
	require.Error(t, err)
	require.ErrorIs(t, err, boom)

	var ue *UploadError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "memory-2-img", ue.Field)
	require.NotContains(t, ue.Uploaded, "memory-2-img")

	require.Zero(t, store.writes)
	require.Equal(t, before, store.doc)
	require.Equal(t, 2, pending.Len())
}

func TestCommitWithoutUploaderFailsWhenImagesPending(t *testing.T) {
	pending := NewPendingUploads()
	pending.Stage("hero-scroll-2", assets.Payload{Name: "x.jpg"})
	store := &recordingStore{}

	_, err := Commit(context.Background(), CommitRequest{
		Schema:  content.DefaultSchema(),
		Pending: pending,
		Store:   store,
	})
	require.ErrorIs(t, err, ErrNoUploader)
	require.Zero(t, store.writes)
}

func TestCommitReportsOrphansOnWriteFailure(t *testing.T) {
	pending := NewPendingUploads()
	pending.Stage("hero-scroll-3", assets.Payload{Name: "three.jpg"})
	store := &recordingStore{err: errors.New("unavailable")}

	_, err := Commit(context.Background(), CommitRequest{
		Schema:   content.DefaultSchema(),
		Pending:  pending,
		Uploader: &fakeUploader{},
		Store:    store,
	})
	var we *WriteError
	require.ErrorAs(t, err, &we)
	require.Equal(t, map[string]string{"hero-scroll-3": "https://img.example/three.jpg"}, we.Uploaded)
}

// barrierUploader holds every call until n calls are in flight at once. A
// call for the payload named fail then errors; the others wait for the
// context to be cancelled.
type barrierUploader struct {
	n    int
	fail string

	mu        sync.Mutex
	entered   int
	release   chan struct{}
	cancelled []string
}

func newBarrierUploader(n int, fail string) *barrierUploader {
	return &barrierUploader{n: n, fail: fail, release: make(chan struct{})}
}

func (b *barrierUploader) Upload(ctx context.Context, p assets.Payload, progress assets.ProgressFunc) (string, error) {
	b.mu.Lock()
	b.entered++
	if b.entered == b.n {
		close(b.release)
	}
	b.mu.Unlock()

	select {
	case <-b.release:
	case <-ctx.Done():
		return "", b.sawCancel(ctx, p.Name)
	}

	switch {
	case b.fail == "":
	case p.Name == b.fail:
		return "", errors.New("upstream rejected")
	default:
		select {
		case <-ctx.Done():
			return "", b.sawCancel(ctx, p.Name)
		case <-time.After(5 * time.Second):
		}
	}
	progress(100)
	return "https://img.example/" + p.Name, nil
}

func (b *barrierUploader) sawCancel(ctx context.Context, name string) error {
	b.mu.Lock()
	b.cancelled = append(b.cancelled, name)
	b.mu.Unlock()
	return ctx.Err()
}

func stageImages(names map[string]string) *PendingUploads {
	pending := NewPendingUploads()
	for id, name := range names {
		pending.Stage(id, assets.Payload{Name: name})
	}
	return pending
}

func TestCommitUploadsRunConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t)

	images := map[string]string{
		"hero-scroll-1":  "a.jpg",
		"hero-scroll-2":  "b.jpg",
		"hero-scroll-3":  "c.jpg",
		"polaroid-1-img": "d.jpg",
	}
	up := newBarrierUploader(len(images), "")
	store := &recordingStore{}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	written, err := Commit(ctx, CommitRequest{
		Schema:   content.DefaultSchema(),
		Pending:  stageImages(images),
		Uploader: up,
		Store:    store,
	})
	require.NoError(t, err, "uploads must all be in flight at the same time")
	require.Equal(t, len(images), up.entered)
	require.Len(t, written, len(images))
	require.Equal(t, 1, store.writes)
}

func TestCommitFirstFailureCancelsSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	images := map[string]string{
		"memory-1-img": "ok-1.jpg",
		"memory-2-img": "bad.jpg",
		"memory-3-img": "ok-2.jpg",
	}
	up := newBarrierUploader(len(images), "bad.jpg")
	pending := stageImages(images)
	store := &recordingStore{}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := Commit(ctx, CommitRequest{
		Schema:   content.DefaultSchema(),
		Pending:  pending,
		Uploader: up,
		Store:    store,
	})
	var ue *UploadError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "memory-2-img", ue.Field)
	require.Empty(t, ue.Uploaded)
	require.ElementsMatch(t, []string{"ok-1.jpg", "ok-2.jpg"}, up.cancelled)
	require.Zero(t, store.writes)
	require.Equal(t, 3, pending.Len())
}
