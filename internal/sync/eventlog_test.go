package syncx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-vlab/internal/db"
)

func TestEventRepo_AppendSince(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })

	repo := NewEventRepo(dbh)
	for _, key := range []string{"s1", "s2", "s3"} {
		e, err := NewEvent("", EventSubmissionGraded, key, map[string]any{"score": 10})
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, e))
	}

	all, err := repo.Since(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "local", all[0].SiteID)
	assert.Equal(t, "s1", all[0].Key)
	assert.JSONEq(t, `{"score":10}`, all[0].DataJSON)

	rest, err := repo.Since(ctx, all[0].Seq, 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "s2", rest[0].Key)
}
