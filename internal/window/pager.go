package window

import (
	"context"
	"sync"
)

// LoadFunc loads the next page, returning how many items are now loaded in
// total and whether more remain.
type LoadFunc func(ctx context.Context) (loaded int, hasMore bool, err error)

// Pager grows the loaded frontier of a list incrementally. It guards
// against overlapping loads: RequestMore while a load is in flight is a
// no-op, so a sentinel firing repeatedly cannot stack fetches. All methods
// are safe for concurrent use; the lock is released while the load function
// runs, so a load may consult the pager without deadlocking.
type Pager struct {
	PageSize int

	mu      sync.Mutex
	loaded  int
	hasMore bool
	loading bool
	load    LoadFunc
}

// NewPager creates a pager over a sequence with unknown length. hasMore
// starts true; the first load discovers the real frontier.
func NewPager(pageSize int, load LoadFunc) *Pager {
	if pageSize < 1 {
		pageSize = DefaultSize
	}
	return &Pager{PageSize: pageSize, hasMore: true, load: load}
}

// Loaded returns how many items have been loaded so far.
func (p *Pager) Loaded() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// HasMore reports whether the backend has items beyond the loaded frontier.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Loading reports whether a load is in flight.
func (p *Pager) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// RequestMore triggers one page load unless exhausted or already loading.
// Returns true when a load was actually performed.
func (p *Pager) RequestMore(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if !p.hasMore || p.loading || p.load == nil {
		p.mu.Unlock()
		return false, nil
	}
	p.loading = true
	load := p.load
	p.mu.Unlock()

	loaded, hasMore, err := load(ctx)

	p.mu.Lock()
	p.loading = false
	if err == nil {
		p.loaded = loaded
		p.hasMore = hasMore
	}
	p.mu.Unlock()

	if err != nil {
		return false, err
	}
	return true, nil
}

// Reset discards pagination state for a new sequence (profile or category
// switch); in-flight results for the old sequence must be dropped by the
// caller.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = 0
	p.hasMore = true
	p.loading = false
}
