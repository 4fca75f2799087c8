package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/gamelib/internal/client/storage"
)

var _ storage.SessionStorage = (*Storage)(nil)

func setupTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "session.db")
	s, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, dbPath
}

func TestNew_CreatesBucket(t *testing.T) {
	s, dbPath := setupTestStorage(t)

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	err = s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketSession) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "session.db"))
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestClose_Twice(t *testing.T) {
	s, _ := setupTestStorage(t)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	_, err := s.LoadSession(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestSession_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStorage(t)

	record, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, record.Token)
	assert.Nil(t, record.User)

	user := []byte(`{"id":"u1","identifier":"alice"}`)
	require.NoError(t, s.SaveSession(ctx, []byte("T1"), user))

	record, err = s.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("T1"), record.Token)
	assert.Equal(t, user, record.User)

	require.NoError(t, s.ClearSession(ctx))

	record, err = s.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, record.Token)
	assert.Nil(t, record.User)

	// повторная очистка не ошибка
	assert.NoError(t, s.ClearSession(ctx))
}

func TestSession_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "session.db")

	s, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.SaveSession(ctx, []byte("T1"), []byte(`{"id":"u1","identifier":"alice"}`)))
	require.NoError(t, s.Close())

	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	record, err := reopened.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("T1"), record.Token)
}

func TestSession_Overwrite(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStorage(t)

	require.NoError(t, s.SaveSession(ctx, []byte("T1"), []byte(`{"id":"u1","identifier":"alice"}`)))
	require.NoError(t, s.SaveSession(ctx, []byte("T2"), []byte(`{"id":"u2","identifier":"bob"}`)))

	record, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("T2"), record.Token)
	assert.JSONEq(t, `{"id":"u2","identifier":"bob"}`, string(record.User))
}

func TestSession_CancelledContext(t *testing.T) {
	s, _ := setupTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.SaveSession(ctx, []byte("T1"), []byte("{}")), context.Canceled)
	assert.ErrorIs(t, s.ClearSession(ctx), context.Canceled)
	_, err := s.LoadSession(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
