package form

import "sync"

// Progress tracks per-field upload percentages of the save in flight.
type Progress struct {
	mu      sync.RWMutex
	percent map[string]int
}

func NewProgress() *Progress {
	return &Progress{percent: make(map[string]int)}
}

// Reset starts tracking a new save over the given fields, all at 0%.
func (p *Progress) Reset(fieldIDs []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.percent = make(map[string]int, len(fieldIDs))
	for _, id := range fieldIDs {
		p.percent[id] = 0
	}
}

func (p *Progress) Set(fieldID string, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.percent[fieldID] = percent
}

// Snapshot returns a copy of the current percentages.
func (p *Progress) Snapshot() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]int, len(p.percent))
	for k, v := range p.percent {
		out[k] = v
	}
	return out
}
