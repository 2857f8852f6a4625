package form

import (
	"sync"

	"github.com/lovenotes/anniversary/internal/assets"
)

// staged is one pending image. The pointer identity lets Consume tell a
// snapshotted entry apart from one re-staged while a save was running.
type staged struct {
	payload assets.Payload
}

// PendingUploads maps field ids to images awaiting upload.
type PendingUploads struct {
	mu      sync.Mutex
	entries map[string]*staged
}

func NewPendingUploads() *PendingUploads {
	return &PendingUploads{entries: make(map[string]*staged)}
}

// Stage records p for the field, replacing any earlier selection.
func (p *PendingUploads) Stage(fieldID string, payload assets.Payload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[fieldID] = &staged{payload: payload}
}

// Discard drops the staged image of a field, if any.
func (p *PendingUploads) Discard(fieldID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, fieldID)
}

func (p *PendingUploads) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *PendingUploads) Has(fieldID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[fieldID]
	return ok
}

// Fields lists the field ids with a staged image.
func (p *PendingUploads) Fields() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.entries))
	for id := range p.entries {
		out = append(out, id)
	}
	return out
}

// Snapshot captures the current entries for one save.
type Snapshot map[string]*staged

// Payload returns the staged image of a field in the snapshot.
func (s Snapshot) Payload(fieldID string) (assets.Payload, bool) {
	e, ok := s[fieldID]
	if !ok {
		return assets.Payload{}, false
	}
	return e.payload, true
}

func (p *PendingUploads) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(Snapshot, len(p.entries))
	for id, e := range p.entries {
		out[id] = e
	}
	return out
}

// Consume removes the snapshotted entries. A field re-staged after the
// snapshot was taken keeps its newer image.
func (p *PendingUploads) Consume(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, e := range s {
		if p.entries[id] == e {
			delete(p.entries, id)
		}
	}
}
