package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsSyncRecent(t *testing.T) {
	posts := newMemPosts()
	posts.users = []int64{1, 2, 3}
	as := &fakeAnalytics{}

	j := NewAnalyticsSyncJob(posts, as, 7, 50)
	j.now = func() time.Time { return drainNow }

	res, err := j.SyncRecent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Synced)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, res.Details, 4)
	assert.ElementsMatch(t, []int64{1, 2, 3}, as.users)
}

func TestAnalyticsSyncRecentNoUsers(t *testing.T) {
	as := &fakeAnalytics{}
	res, err := NewAnalyticsSyncJob(newMemPosts(), as, 7, 50).SyncRecent(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Synced)
	assert.Empty(t, as.users)
}
