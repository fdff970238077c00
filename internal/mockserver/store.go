package mockserver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/colonyops/mrview/internal/core/mr"
)

var (
	ErrNotFound        = errors.New("merge request not found")
	ErrInvalidMR       = errors.New("Invalid mr id") //nolint:staticcheck // backend wire message
	ErrRefConflict     = errors.New("ref hash conflict")
	ErrIllegal         = errors.New("operation not allowed in current status")
	ErrCommentNotFound = errors.New("comment not found")
)

// Conversation is a stored timeline entry.
type Conversation struct {
	ID        int64   `yaml:"id"`
	UserID    int64   `yaml:"user_id"`
	Kind      string  `yaml:"conv_type"`
	Comment   *string `yaml:"comment"`
	CreatedAt int64   `yaml:"created_at"`
}

// File is a stored file change.
type File struct {
	Path   string `yaml:"path"`
	Action string `yaml:"action"`
}

// Record is a stored merge request.
type Record struct {
	ID             string         `yaml:"id"`
	Title          string         `yaml:"title"`
	Description    string         `yaml:"description"`
	Path           string         `yaml:"path"`
	Status         mr.Status      `yaml:"status"`
	OpenTimestamp  int64          `yaml:"open_timestamp"`
	MergeTimestamp *int64         `yaml:"merge_timestamp"`
	Conflict       bool           `yaml:"conflict"` // merging fails with a ref hash conflict
	Files          []File         `yaml:"files"`
	Diff           string         `yaml:"diff"`
	Conversations  []Conversation `yaml:"conversations"`
}

// Store is an in-memory merge request backend.
type Store struct {
	mu      sync.Mutex
	records map[string]*Record
	nextID  int64
	now     func() time.Time
}

// NewStore creates a store seeded with records.
func NewStore(records []Record) *Store {
	s := &Store{
		records: make(map[string]*Record, len(records)),
		now:     time.Now,
	}
	for i := range records {
		r := records[i]
		r.Status = mr.ParseStatus(string(r.Status))
		s.records[r.ID] = &r
		for _, c := range r.Conversations {
			s.nextID = max(s.nextID, c.ID)
		}
	}
	return s
}

// List returns copies of records matching status, newest first. "all" or
// an empty status matches everything.
func (s *Store) List(status string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := mr.ParseStatus(status)
	matchAll := status == "" || strings.EqualFold(status, "all")

	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if matchAll || r.Status == want {
			out = append(out, cloneRecord(r))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenTimestamp == out[j].OpenTimestamp {
			return out[i].ID < out[j].ID
		}
		return out[i].OpenTimestamp > out[j].OpenTimestamp
	})
	return out
}

// Get returns a copy of the record.
func (s *Store) Get(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(r), nil
}

// Merge merges an open merge request. Anything but an open record is
// reported as an invalid id, matching the backend.
func (s *Store) Merge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.Status != mr.StatusOpen {
		return ErrInvalidMR
	}
	if r.Conflict {
		return ErrRefConflict
	}

	now := s.now().Unix()
	r.Status = mr.StatusMerged
	r.MergeTimestamp = &now
	s.appendLocked(r, mr.KindMerged, nil)
	return nil
}

// Close closes an open merge request.
func (s *Store) Close(id string) error {
	return s.transition(id, mr.ActionClose, mr.KindClosed)
}

// Reopen reopens a closed merge request.
func (s *Store) Reopen(id string) error {
	return s.transition(id, mr.ActionReopen, mr.KindReopened)
}

func (s *Store) transition(id string, action mr.Action, kind mr.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}

	next, err := mr.Next(r.Status, action)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIllegal, err)
	}

	r.Status = next
	s.appendLocked(r, kind, nil)
	return nil
}

// Comment appends a comment by userID.
func (s *Store) Comment(id string, userID int64, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}

	s.appendLocked(r, mr.KindComment, &body)
	r.Conversations[len(r.Conversations)-1].UserID = userID
	return nil
}

// EditComment replaces the body of a comment.
func (s *Store) EditComment(id string, convID int64, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}

	for i := range r.Conversations {
		c := &r.Conversations[i]
		if c.ID == convID && mr.ParseKind(c.Kind) == mr.KindComment {
			c.Comment = &body
			return nil
		}
	}
	return ErrCommentNotFound
}

func (s *Store) appendLocked(r *Record, kind mr.Kind, body *string) {
	s.nextID++
	r.Conversations = append(r.Conversations, Conversation{
		ID:        s.nextID,
		Kind:      kind.String(),
		Comment:   body,
		CreatedAt: s.now().Unix(),
	})
}

func cloneRecord(r *Record) Record {
	out := *r
	out.Files = append([]File(nil), r.Files...)
	out.Conversations = append([]Conversation(nil), r.Conversations...)
	if r.MergeTimestamp != nil {
		ts := *r.MergeTimestamp
		out.MergeTimestamp = &ts
	}
	return out
}
