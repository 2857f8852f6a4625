// Package page owns the state behind the public page and the admin page.
// Each admin session gets its own Controller; nothing is held in globals.
package page

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/lovenotes/anniversary/internal/assets"
	"github.com/lovenotes/anniversary/internal/content"
	"github.com/lovenotes/anniversary/internal/content/service"
	"github.com/lovenotes/anniversary/internal/form"
	"github.com/lovenotes/anniversary/internal/view"
	"github.com/lovenotes/anniversary/pkg/logger"
	"github.com/lovenotes/anniversary/pkg/metrics"
)

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrNotImageField = errors.New("field does not take an image")
	ErrEmptyImage    = errors.New("empty image")
)

// Options are the dependencies shared by every page.
type Options struct {
	Schema   content.Schema
	Content  service.Service
	Uploader assets.Uploader
	Cropper  *assets.Cropper // nil stages images as picked
	Clock    *view.Clock     // nil disables the elapsed counter
}

// Manager renders the public page and builds admin controllers.
type Manager struct {
	opts Options
}

func NewManager(opts Options) *Manager {
	return &Manager{opts: opts}
}

func (m *Manager) Schema() content.Schema { return m.opts.Schema }

// View loads the document and renders the public page. The elapsed counter
// is re-anchored at the stored start date.
func (m *Manager) View(ctx context.Context) view.Page {
	r := view.Renderer{Schema: m.opts.Schema}
	if m.opts.Clock != nil {
		r.Anchor = m.opts.Clock
	}
	return r.Render(m.opts.Content.Load(ctx))
}

// Resolved returns every field's effective value and re-anchors the elapsed
// counter at the resolved start date.
func (m *Manager) Resolved(ctx context.Context) content.Document {
	doc := m.opts.Content.Load(ctx).Resolve(m.opts.Schema)
	if m.opts.Clock != nil {
		m.opts.Clock.SetElapsedAnchor(doc[view.FieldStartDate])
	}
	return doc
}

// Elapsed returns the counter value at now.
func (m *Manager) Elapsed(now time.Time) view.Elapsed {
	if m.opts.Clock == nil {
		return view.Elapsed{}
	}
	return m.opts.Clock.Since(now)
}

// NewController returns fresh admin state for one session.
func (m *Manager) NewController() *Controller {
	return &Controller{
		opts:     m.opts,
		doc:      content.Document{},
		pending:  form.NewPendingUploads(),
		progress: form.NewProgress(),
	}
}

// Controller is the admin state of one session: the last loaded document,
// images staged for upload, and the progress of the save in flight.
type Controller struct {
	opts Options

	mu  sync.RWMutex
	doc content.Document

	saveMu   sync.Mutex
	pending  *form.PendingUploads
	progress *form.Progress
}

// Load refreshes the document snapshot from the store.
func (c *Controller) Load(ctx context.Context) content.Document {
	doc := c.opts.Content.Load(ctx)
	c.mu.Lock()
	c.doc = doc.Clone()
	c.mu.Unlock()
	return doc
}

// Document returns a copy of the snapshot.
func (c *Controller) Document() content.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.Clone()
}

// Form builds the editable form over the snapshot.
func (c *Controller) Form() form.Form {
	return form.Build(c.opts.Schema, c.Document())
}

// Stage crops (when configured) and stages an image for an image field and
// returns a data URL for the local preview. sel is an optional crop rectangle.
func (c *Controller) Stage(fieldID string, p assets.Payload, sel *image.Rectangle) (string, error) {
	p, err := c.prepare(fieldID, p, sel)
	if err != nil {
		return "", err
	}
	c.pending.Stage(fieldID, p)
	logger.With("field", fieldID).Debugf("staged %s (%d bytes)", p.Name, len(p.Data))
	return assets.DataURL(p), nil
}

// StageAll stages several images at once. Either every image is staged or,
// on the first rejected one, none is.
func (c *Controller) StageAll(images map[string]assets.Payload) error {
	ids := make([]string, 0, len(images))
	for id := range images {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	prepared := make([]assets.Payload, len(ids))
	for i, id := range ids {
		p, err := c.prepare(id, images[id], nil)
		if err != nil {
			return err
		}
		prepared[i] = p
	}
	for i, id := range ids {
		c.pending.Stage(id, prepared[i])
	}
	logger.Debugf("staged %d image(s): %v", len(ids), ids)
	return nil
}

func (c *Controller) prepare(fieldID string, p assets.Payload, sel *image.Rectangle) (assets.Payload, error) {
	f, ok := c.opts.Schema.Field(fieldID)
	if !ok {
		return p, fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
	}
	if f.Kind != content.KindImage {
		return p, fmt.Errorf("%w: %s", ErrNotImageField, fieldID)
	}
	if len(p.Data) == 0 {
		return p, ErrEmptyImage
	}
	if c.opts.Cropper != nil {
		cropped, err := c.opts.Cropper.Crop(p, sel)
		if err != nil {
			return p, fmt.Errorf("crop %s: %w", fieldID, err)
		}
		p = cropped
	}
	return p, nil
}

// Save commits the submitted values and staged images. Saves of one session
// run one at a time. On success the update is merged into the snapshot.
func (c *Controller) Save(ctx context.Context, values map[string]string) (content.Document, error) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	start := time.Now()
	written, err := form.Commit(ctx, form.CommitRequest{
		Schema:   c.opts.Schema,
		Values:   values,
		Pending:  c.pending,
		Uploader: c.opts.Uploader,
		Store:    c.opts.Content,
		Progress: c.progress,
	})
	metrics.SaveDuration.Observe(time.Since(start).Seconds())

	var ue *form.UploadError
	var we *form.WriteError
	switch {
	case err == nil:
		metrics.ContentSaves.WithLabelValues("ok").Inc()
	case errors.As(err, &ue):
		metrics.ContentSaves.WithLabelValues("upload_error").Inc()
		if len(ue.Uploaded) > 0 {
			logger.Warnf("save aborted on %s; orphaned uploads: %v", ue.Field, ue.Uploaded)
		}
		return nil, err
	case errors.As(err, &we):
		metrics.ContentSaves.WithLabelValues("write_error").Inc()
		logger.Warnf("content write failed; orphaned uploads: %v", we.Uploaded)
		return nil, err
	default:
		metrics.ContentSaves.WithLabelValues("upload_error").Inc()
		return nil, err
	}

	c.mu.Lock()
	c.doc.Merge(written)
	c.mu.Unlock()
	logger.Infof("content saved: %d fields", len(written))
	return written, nil
}

// Progress returns per-field upload percentages of the latest save.
func (c *Controller) Progress() map[string]int {
	return c.progress.Snapshot()
}

// Pending lists the fields with a staged image, sorted.
func (c *Controller) Pending() []string {
	ids := c.pending.Fields()
	sort.Strings(ids)
	return ids
}

// Discard drops a staged image.
func (c *Controller) Discard(fieldID string) {
	c.pending.Discard(fieldID)
}
