package localstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omraut/carbon-terminal/internal/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "terminal.json"))
	require.NoError(t, err)
	return s
}

func TestStore_PutGetDelete(t *testing.T) {
	s := newStore(t)

	user := model.UserRecord{ID: "u-1", Name: "Om", Email: "om@example.com", Role: model.RoleUser}
	require.NoError(t, s.Put(KeySession, user))

	var got model.UserRecord
	ok, err := s.Get(KeySession, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user, got)

	require.NoError(t, s.Delete(KeySession))
	ok, err = s.Get(KeySession, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_GetMissingKey(t *testing.T) {
	s := newStore(t)
	var v struct{}
	ok, err := s.Get("never_written", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_HistoryBuffer(t *testing.T) {
	s := newStore(t)

	buf, err := s.History()
	require.NoError(t, err)
	assert.Empty(t, buf)

	now := time.Now().UTC().Truncate(time.Second)
	first := model.EmissionRecord{ID: "r-1", UserID: "u-1", Scope1: 27, Total: 27, CreatedAt: now}
	second := model.EmissionRecord{ID: "r-2", UserID: "u-1", Scope2: 12, Total: 12, CreatedAt: now.Add(time.Hour)}
	require.NoError(t, s.AppendHistory(first))
	require.NoError(t, s.AppendHistory(second))

	buf, err = s.History()
	require.NoError(t, err)
	require.Len(t, buf, 2)
	assert.Equal(t, "r-1", buf[0].ID)
	assert.Equal(t, "r-2", buf[1].ID)
}
