package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

// Timeline glyphs.
var (
	IconComment  = "" // nf-oct-comment
	IconMerge    = "" // nf-oct-git_merge
	IconClosed   = "" // nf-oct-git_pull_request_closed
	IconReopened = "" // nf-oct-issue_reopened
	IconEvent    = "" // nf-oct-dot_fill
)

// Toast icons.
var (
	IconNotifyInfo    = "" // nf-oct-info
	IconNotifyWarning = "" // nf-oct-alert
	IconNotifyError   = "" // nf-oct-x_circle
)

// File change markers on the file list.
var (
	IconFileAdded    = "+"
	IconFileDeleted  = "-"
	IconFileModified = "~"
	IconFileRenamed  = "→"
)
