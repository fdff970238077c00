package mockserver

import "github.com/colonyops/mrview/internal/core/mr"

type conversationResponse struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	ConvType  string  `json:"conv_type"`
	Comment   *string `json:"comment"`
	CreatedAt int64   `json:"created_at"`
}

type detailResponse struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Path           string                 `json:"path"`
	Status         string                 `json:"status"`
	OpenTimestamp  int64                  `json:"open_timestamp"`
	MergeTimestamp *int64                 `json:"merge_timestamp"`
	Conversations  []conversationResponse `json:"conversations"`
}

type summaryResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	Path           string `json:"path"`
	OpenTimestamp  int64  `json:"open_timestamp"`
	MergeTimestamp *int64 `json:"merge_timestamp"`
}

type fileResponse struct {
	Path   string `json:"path"`
	Action string `json:"action"`
}

type mergeResponse struct {
	Result     bool   `json:"result"`
	ErrMessage string `json:"err_message"`
}

func toDetail(r Record) detailResponse {
	convs := make([]conversationResponse, 0, len(r.Conversations))
	for _, c := range r.Conversations {
		convs = append(convs, conversationResponse{
			ID:        c.ID,
			UserID:    c.UserID,
			ConvType:  mr.ParseKind(c.Kind).String(),
			Comment:   c.Comment,
			CreatedAt: c.CreatedAt,
		})
	}

	return detailResponse{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Path:           r.Path,
		Status:         r.Status.String(),
		OpenTimestamp:  r.OpenTimestamp,
		MergeTimestamp: r.MergeTimestamp,
		Conversations:  convs,
	}
}

func toSummary(r Record) summaryResponse {
	return summaryResponse{
		ID:             r.ID,
		Title:          r.Title,
		Status:         r.Status.String(),
		Path:           r.Path,
		OpenTimestamp:  r.OpenTimestamp,
		MergeTimestamp: r.MergeTimestamp,
	}
}
