package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/colonyops/mrview/internal/core/mr"
)

// result is the backend's common result shape. ReqResult is optional: most
// responses carry only the nested data.
type result struct {
	ReqResult  *bool           `json:"req_result"`
	Data       json.RawMessage `json:"data"`
	ErrMessage string          `json:"err_message"`
}

// decodeResult unwraps {"data": {"data": ...}}, optionally with req_result
// and err_message beside the inner data, or the bare inner shape. The caller
// decides success; decodeResult only parses.
func decodeResult(body []byte) (result, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return result{}, err
	}

	if _, ok := outer["req_result"]; ok {
		var r result
		err := json.Unmarshal(body, &r)
		return r, err
	}

	inner, ok := outer["data"]
	if !ok {
		return result{}, errors.New("missing data envelope")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(inner, &fields); err != nil {
		return result{}, err
	}
	_, hasData := fields["data"]
	_, hasResult := fields["req_result"]
	if !hasData && !hasResult {
		return result{}, errors.New("missing nested data")
	}

	var r result
	if err := json.Unmarshal(inner, &r); err != nil {
		return result{}, err
	}
	return r, nil
}

// ok reports success. Without req_result an error message is the only
// failure signal left in the body.
func (r result) ok() bool {
	if r.ReqResult == nil {
		return r.ErrMessage == ""
	}
	return *r.ReqResult
}

func (r result) hasData() bool {
	trimmed := bytes.TrimSpace(r.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// flexID accepts a JSON string or number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type conversationDTO struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	ConvType  mr.Kind `json:"conv_type"`
	Comment   *string `json:"comment"`
	CreatedAt int64   `json:"created_at"`
}

type detailDTO struct {
	ID             flexID            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Path           string            `json:"path"`
	Status         mr.Status         `json:"status"`
	OpenTimestamp  int64             `json:"open_timestamp"`
	MergeTimestamp *int64            `json:"merge_timestamp"`
	Conversations  []conversationDTO `json:"conversations"`
	Conversions    []conversationDTO `json:"conversions"` // older backends
}

type summaryDTO struct {
	ID             flexID    `json:"id"`
	Title          string    `json:"title"`
	Status         mr.Status `json:"status"`
	Path           string    `json:"path"`
	OpenTimestamp  int64     `json:"open_timestamp"`
	MergeTimestamp *int64    `json:"merge_timestamp"`
	UpdatedAt      int64     `json:"updated_at"`
}

type fileDTO struct {
	Path   string `json:"path"`
	Action string `json:"action"`
}

// UnmarshalJSON accepts either an object or a bare path string.
func (f *fileDTO) UnmarshalJSON(b []byte) error {
	var path string
	if err := json.Unmarshal(b, &path); err == nil {
		*f = fileDTO{Path: path}
		return nil
	}

	type plain fileDTO
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*f = fileDTO(p)
	return nil
}

type mergeResultDTO struct {
	Result     *bool  `json:"result"`
	ErrMessage string `json:"err_message"`
}

type contentRequest struct {
	Content string `json:"content"`
}

func unix(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func (d detailDTO) toDomain(id string) mr.MergeRequest {
	convs := d.Conversations
	if convs == nil {
		convs = d.Conversions
	}

	out := mr.MergeRequest{
		ID:           id,
		Title:        d.Title,
		Description:  d.Description,
		Path:         d.Path,
		Status:       d.Status,
		CreatedAt:    unix(d.OpenTimestamp),
		Conversation: make([]mr.ConversationEntry, 0, len(convs)),
	}
	if out.Status == "" {
		out.Status = mr.StatusUnknown
	}
	if d.MergeTimestamp != nil {
		out.MergedAt = unix(*d.MergeTimestamp)
	}

	for _, c := range convs {
		entry := mr.ConversationEntry{
			ID:        c.ID,
			AuthorID:  c.UserID,
			Kind:      c.ConvType,
			CreatedAt: unix(c.CreatedAt),
		}
		if c.Comment != nil {
			entry.Body = *c.Comment
		}
		out.Conversation = append(out.Conversation, entry)
	}

	return out
}

func (s summaryDTO) toDomain() mr.Summary {
	updated := s.UpdatedAt
	if updated == 0 && s.MergeTimestamp != nil {
		updated = *s.MergeTimestamp
	}
	if updated == 0 {
		updated = s.OpenTimestamp
	}

	status := s.Status
	if status == "" {
		status = mr.StatusUnknown
	}

	return mr.Summary{
		ID:        string(s.ID),
		Title:     s.Title,
		Status:    status,
		Path:      s.Path,
		UpdatedAt: unix(updated),
	}
}

func convIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}
