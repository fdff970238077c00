package api_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/mrview/internal/api"
	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/mockserver"
)

func startBackend(t *testing.T) string {
	t.Helper()
	fx, err := mockserver.DefaultFixtures()
	require.NoError(t, err)

	srv := mockserver.New(mockserver.NewStore(fx.Records), mockserver.Options{
		Users:  fx.Users,
		Logger: zerolog.Nop(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestClientAgainstBackend_ReadPath(t *testing.T) {
	ctx := context.Background()
	c := api.New(startBackend(t), api.WithLogger(zerolog.Nop()))

	list, err := c.List(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, list, 4)

	detail, err := c.Detail(ctx, "103")
	require.NoError(t, err)
	assert.Equal(t, mr.StatusMerged, detail.Status)
	require.Len(t, detail.Conversation, 2)
	assert.Equal(t, mr.KindMerged, detail.Conversation[1].Kind)
	assert.False(t, detail.MergedAt.IsZero())

	files, err := c.Files(ctx, "101")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	diff, err := c.Diff(ctx, "101")
	require.NoError(t, err)
	assert.Contains(t, diff, "ceres/src/pack/retry.rs")

	_, err = c.Detail(ctx, "nope")
	require.ErrorIs(t, err, mr.ErrNotFound)
}

func TestClientAgainstBackend_AuthGate(t *testing.T) {
	ctx := context.Background()
	url := startBackend(t)

	anon := api.New(url, api.WithLogger(zerolog.Nop()))
	require.ErrorIs(t, anon.CheckAuth(ctx), mr.ErrUnauthorized)
	require.ErrorIs(t, anon.Close(ctx, "101"), mr.ErrUnauthorized)

	dev := api.New(url, api.WithToken("dev-token"), api.WithLogger(zerolog.Nop()))
	require.NoError(t, dev.CheckAuth(ctx))
}

func TestClientAgainstBackend_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := api.New(startBackend(t), api.WithToken("dev-token"), api.WithLogger(zerolog.Nop()))

	require.NoError(t, c.Close(ctx, "101"))
	require.NoError(t, c.Reopen(ctx, "101"))
	require.NoError(t, c.Comment(ctx, "101", "ready"))
	require.NoError(t, c.Merge(ctx, "101"))

	detail, err := c.Detail(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, mr.StatusMerged, detail.Status)

	kinds := make([]mr.Kind, 0, len(detail.Conversation))
	for _, e := range detail.Conversation {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []mr.Kind{
		mr.KindComment, mr.KindComment,
		mr.KindClosed, mr.KindReopened, mr.KindComment, mr.KindMerged,
	}, kinds)

	err = c.Merge(ctx, "101")
	require.ErrorIs(t, err, mr.ErrRejected)
	assert.Contains(t, err.Error(), "Invalid mr id")

	err = c.Merge(ctx, "104")
	require.ErrorIs(t, err, mr.ErrRejected)
	assert.Contains(t, err.Error(), "ref hash conflict")

	err = c.Reopen(ctx, "103")
	require.ErrorIs(t, err, mr.ErrRejected)
}
