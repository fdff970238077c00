package components

import (
	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/core/styles"
)

// StatusBadge renders a merge request status as a coloured label.
func StatusBadge(s mr.Status) string {
	switch s {
	case mr.StatusOpen:
		return styles.StatusOpenStyle.Render("Open")
	case mr.StatusClosed:
		return styles.StatusClosedStyle.Render("Closed")
	case mr.StatusMerged:
		return styles.StatusMergedStyle.Render("Merged")
	default:
		return styles.StatusUnknownStyle.Render("Unknown")
	}
}
