// Package draft defines the unsent comment store.
package draft

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Draft is the unsent compose text for one merge request. TargetID is the
// comment being replied to or edited, or 0 for a new comment.
type Draft struct {
	MRID      string
	TargetID  int64
	Body      string
	UpdatedAt time.Time
}

// Empty reports whether the draft holds no meaningful text.
func (d Draft) Empty() bool {
	return strings.TrimSpace(d.Body) == ""
}

// Store persists drafts keyed by merge request id. Load on a missing draft
// returns a zero Draft and ok=false.
type Store interface {
	Load(ctx context.Context, mrID string) (d Draft, ok bool, err error)
	Save(ctx context.Context, d Draft) error
	Delete(ctx context.Context, mrID string) error
}

// Memory is an in-process Store, used when persistence is disabled.
type Memory struct {
	mu     sync.Mutex
	drafts map[string]Draft
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{drafts: make(map[string]Draft)}
}

func (m *Memory) Load(_ context.Context, mrID string) (Draft, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[mrID]
	return d, ok, nil
}

// Save stores d, or deletes it when the body is blank.
func (m *Memory) Save(_ context.Context, d Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.Empty() {
		delete(m.drafts, d.MRID)
		return nil
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}
	m.drafts[d.MRID] = d
	return nil
}

func (m *Memory) Delete(_ context.Context, mrID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, mrID)
	return nil
}
