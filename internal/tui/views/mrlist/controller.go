package mrlist

import (
	"slices"
	"strings"

	"github.com/colonyops/mrview/internal/core/mr"
)

// Statuses is the cycle order of the status filter.
var Statuses = []string{"open", "closed", "merged", "all"}

// Controller holds the merge request list, its filters and the selection.
// It contains pure data logic with no Bubble Tea dependencies.
type Controller struct {
	items  []mr.Summary
	status string
	query  string
	cursor int

	seq     uint64
	loading bool
	loaded  bool
	err     error
}

// NewController creates a controller listing merge requests in status.
func NewController(status string) *Controller {
	if !slices.Contains(Statuses, status) {
		status = Statuses[0]
	}
	return &Controller{status: status}
}

// BeginLoad marks a fetch as started and returns its sequence token.
func (c *Controller) BeginLoad() uint64 {
	c.seq++
	c.loading = true
	return c.seq
}

// Apply stores the result of the fetch identified by seq. Results from
// superseded fetches are dropped and Apply returns false. A failed fetch
// keeps the previous items.
func (c *Controller) Apply(seq uint64, items []mr.Summary, err error) bool {
	if seq != c.seq {
		return false
	}
	c.loading = false
	c.err = err
	if err != nil {
		return true
	}

	selected, hadSelection := c.Selected()
	c.items = items
	c.loaded = true
	c.cursor = 0
	if hadSelection {
		c.Select(selected.ID)
	}
	return true
}

// Visible returns the items matching the text filter.
func (c *Controller) Visible() []mr.Summary {
	q := strings.ToLower(strings.TrimSpace(c.query))
	if q == "" {
		return c.items
	}

	var out []mr.Summary
	for _, it := range c.items {
		if strings.Contains(strings.ToLower(it.Title), q) ||
			strings.Contains(strings.ToLower(it.Path), q) ||
			strings.Contains(it.ID, q) {
			out = append(out, it)
		}
	}
	return out
}

// SetQuery updates the text filter and resets the cursor.
func (c *Controller) SetQuery(q string) {
	if q == c.query {
		return
	}
	c.query = q
	c.cursor = 0
}

// Query returns the text filter.
func (c *Controller) Query() string { return c.query }

// Move shifts the cursor by delta, clamped to the visible items.
func (c *Controller) Move(delta int) {
	c.cursor = c.clamp(c.cursor + delta)
}

// Home moves the cursor to the first item.
func (c *Controller) Home() { c.cursor = 0 }

// End moves the cursor to the last item.
func (c *Controller) End() { c.cursor = c.clamp(len(c.Visible()) - 1) }

func (c *Controller) clamp(i int) int {
	n := len(c.Visible())
	if n == 0 {
		return 0
	}
	return min(max(i, 0), n-1)
}

// Cursor returns the index of the selected visible item.
func (c *Controller) Cursor() int { return c.cursor }

// Selected returns the item under the cursor.
func (c *Controller) Selected() (mr.Summary, bool) {
	visible := c.Visible()
	if c.cursor < 0 || c.cursor >= len(visible) {
		return mr.Summary{}, false
	}
	return visible[c.cursor], true
}

// Select moves the cursor to the item with id, if visible.
func (c *Controller) Select(id string) bool {
	for i, it := range c.Visible() {
		if it.ID == id {
			c.cursor = i
			return true
		}
	}
	return false
}

// CycleStatus advances the status filter and returns the new value. The
// caller is expected to reload.
func (c *Controller) CycleStatus() string {
	i := slices.Index(Statuses, c.status)
	c.status = Statuses[(i+1)%len(Statuses)]
	return c.status
}

// Status returns the status filter sent to the backend.
func (c *Controller) Status() string { return c.status }

// Loading reports whether a fetch is in flight.
func (c *Controller) Loading() bool { return c.loading }

// Loaded reports whether any fetch has succeeded.
func (c *Controller) Loaded() bool { return c.loaded }

// Err returns the error of the last fetch, if it failed.
func (c *Controller) Err() error { return c.err }
