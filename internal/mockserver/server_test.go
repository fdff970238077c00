package mockserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data struct {
		ReqResult  bool            `json:"req_result"`
		Data       json.RawMessage `json:"data"`
		ErrMessage string          `json:"err_message"`
	} `json:"data"`
}

func newTestServer(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()
	store := newTestStore(t)
	srv := New(store, Options{
		Users:  map[string]int64{"dev-token": 1},
		Logger: zerolog.Nop(),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func call(t *testing.T, ts *httptest.Server, method, path, token, body string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestServer_Auth(t *testing.T) {
	ts, _ := newTestServer(t)

	code, env := call(t, ts, http.MethodGet, "/api/auth", "dev-token", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Data.ReqResult)

	code, env = call(t, ts, http.MethodGet, "/api/auth", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Data.ReqResult)
}

func TestServer_Detail(t *testing.T) {
	ts, _ := newTestServer(t)

	code, env := call(t, ts, http.MethodGet, "/api/mr/101/detail", "", "")
	require.Equal(t, http.StatusOK, code)

	var detail detailResponse
	require.NoError(t, json.Unmarshal(env.Data.Data, &detail))
	assert.Equal(t, "open", detail.Status)
	assert.Len(t, detail.Conversations, 2)

	code, _ = call(t, ts, http.MethodGet, "/api/mr/999/detail", "", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_ListValidatesStatus(t *testing.T) {
	ts, _ := newTestServer(t)

	code, _ := call(t, ts, http.MethodGet, "/api/mr/list?status=draft", "", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := call(t, ts, http.MethodGet, "/api/mr/list?status=closed", "", "")
	require.Equal(t, http.StatusOK, code)

	var items []summaryResponse
	require.NoError(t, json.Unmarshal(env.Data.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "102", items[0].ID)
}

func TestServer_MutationsRequireToken(t *testing.T) {
	ts, store := newTestServer(t)

	code, _ := call(t, ts, http.MethodPost, "/api/mr/101/close", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	rec, err := store.Get("101")
	require.NoError(t, err)
	assert.Equal(t, "open", rec.Status.String())
}

func TestServer_MergeFailureIsInsideEnvelope(t *testing.T) {
	ts, _ := newTestServer(t)

	code, env := call(t, ts, http.MethodPost, "/api/mr/102/merge", "dev-token", "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Data.ReqResult)

	var res mergeResponse
	require.NoError(t, json.Unmarshal(env.Data.Data, &res))
	assert.False(t, res.Result)
	assert.Equal(t, "Invalid mr id", res.ErrMessage)
}

func TestServer_IllegalCloseIsRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	code, env := call(t, ts, http.MethodPost, "/api/mr/103/close", "dev-token", "")
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, env.Data.ReqResult)
	assert.NotEmpty(t, env.Data.ErrMessage)
}

func TestServer_CommentValidation(t *testing.T) {
	ts, store := newTestServer(t)

	code, _ := call(t, ts, http.MethodPost, "/api/mr/101/comment", "dev-token", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, ts, http.MethodPost, "/api/mr/101/comment", "dev-token", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := call(t, ts, http.MethodPost, "/api/mr/101/comment", "dev-token", `{"content":"ship it"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Data.ReqResult)

	rec, err := store.Get("101")
	require.NoError(t, err)
	assert.Len(t, rec.Conversations, 3)
}

func TestServer_DiffPlainText(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/mr/103/files-changed", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/plain")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.True(t, strings.HasPrefix(string(body), "diff --git a/taurus/src/queue.rs"))
}
