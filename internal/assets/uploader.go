// Package assets uploads staged images to a public image host and reports
// transfer progress while doing so.
package assets

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lovenotes/anniversary/pkg/metrics"
)

// Payload is an in-memory image awaiting upload.
type Payload struct {
	Name        string
	ContentType string
	Data        []byte
}

// DetectedContentType returns ContentType, sniffing the data when unset.
func (p Payload) DetectedContentType() string {
	if p.ContentType != "" {
		return p.ContentType
	}
	return http.DetectContentType(p.Data)
}

// ProgressFunc receives upload progress as a whole percentage in 0..100.
type ProgressFunc func(percent int)

// Uploader stores a payload and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, p Payload, progress ProgressFunc) (string, error)
}

// DataURL renders the payload as a data: URL for a local preview.
func DataURL(p Payload) string {
	return "data:" + p.DetectedContentType() + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// objectBaseURL is the URL prefix under which object keys are served. A
// configured public base is used as is, so it must already include any bucket
// path; otherwise the backend's own <origin>/<bucket> is used.
func objectBaseURL(publicBaseURL, origin, bucket string) string {
	if publicBaseURL != "" {
		return strings.TrimRight(publicBaseURL, "/")
	}
	return strings.TrimRight(origin, "/") + "/" + bucket
}

// objectKey names an uploaded object: uploads/<uuid>-<sanitized name>.
func objectKey(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	return "uploads/" + uuid.NewString() + "-" + base
}

// progressTracker turns byte counts into monotonic percentages.
type progressTracker struct {
	mu    sync.Mutex
	total int64
	done  int64
	last  int
	fn    ProgressFunc
}

func newProgressTracker(total int64, fn ProgressFunc) *progressTracker {
	t := &progressTracker{total: total, last: -1, fn: fn}
	t.emit(0)
	return t
}

func (t *progressTracker) add(n int64) {
	t.mu.Lock()
	t.done += n
	done := t.done
	t.mu.Unlock()
	t.set(done)
}

// set records an absolute byte count.
func (t *progressTracker) set(done int64) {
	if t.total <= 0 {
		return
	}
	pct := int(done * 100 / t.total)
	if pct > 99 {
		// 100 is reserved for a confirmed upload
		pct = 99
	}
	t.emit(pct)
}

func (t *progressTracker) finish() {
	t.emit(100)
}

func (t *progressTracker) emit(pct int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pct <= t.last {
		return
	}
	t.last = pct
	if t.fn != nil {
		t.fn(pct)
	}
}

// progressReader reports bytes as they are read from r.
type progressReader struct {
	r io.Reader
	t *progressTracker
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.t.add(int64(n))
	}
	return n, err
}

// progressSink is handed to clients that push already-sent chunks into a
// reader (minio's Progress hook).
type progressSink struct {
	t *progressTracker
}

func (p progressSink) Read(b []byte) (int, error) {
	p.t.add(int64(len(b)))
	return len(b), nil
}

// Instrumented counts upload outcomes per backend.
func Instrumented(u Uploader, backend string) Uploader {
	return &instrumented{next: u, backend: backend}
}

type instrumented struct {
	next    Uploader
	backend string
}

func (i *instrumented) Upload(ctx context.Context, p Payload, progress ProgressFunc) (string, error) {
	url, err := i.next.Upload(ctx, p, progress)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.AssetUploads.WithLabelValues(i.backend, result).Inc()
	return url, err
}
