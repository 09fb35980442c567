package bbolt

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loog-project/rulist/internal/store"
	"github.com/loog-project/rulist/internal/user"
)

var ctx = context.Background()

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.bb")
	s, err := New(path, nil, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

// TestNewAndBuckets checks that the DB opens and the file is initialized.
func TestNewAndBuckets(t *testing.T) {
	s, _ := newStore(t)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.NotZero(t, info.Size(), "DB file should not be empty")
}

func TestAppendGetRoundtrip(t *testing.T) {
	s, _ := newStore(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	first := &store.Batch{
		Op:        "load",
		Time:      now,
		Requested: 2,
		Users: []user.Record{
			{ID: "1", FirstName: "Ada", LastName: "Lovelace"},
			{ID: "2", FirstName: "Grace", LastName: "Hopper", AvatarURL: "https://a/2.png"},
		},
	}
	require.NoError(t, s.Append(ctx, first))
	assert.Equal(t, store.BatchID(1), first.ID)

	second := &store.Batch{Op: "add", Time: now, Error: "fetching x: status error"}
	require.NoError(t, s.Append(ctx, second))
	assert.Equal(t, store.BatchID(2), second.ID)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "load", got.Op)
	assert.True(t, now.Equal(got.Time))
	assert.Equal(t, first.Users, got.Users)
	assert.False(t, got.Failed())

	got, err = s.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, got.Failed())
	assert.Empty(t, got.Users)

	_, err = s.Get(ctx, 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWalkInOrderAndStops(t *testing.T) {
	s, _ := newStore(t)
	for _, op := range []string{"load", "refresh", "add", "add"} {
		require.NoError(t, s.Append(ctx, &store.Batch{Op: op, Time: time.Now()}))
	}

	var ops []string
	require.NoError(t, s.Walk(func(b *store.Batch) bool {
		ops = append(ops, b.Op)
		return true
	}))
	assert.Equal(t, []string{"load", "refresh", "add", "add"}, ops)

	var seen int
	require.NoError(t, s.Walk(func(b *store.Batch) bool {
		seen++
		return b.ID < 2
	}))
	assert.Equal(t, 2, seen)
}

// TestConcurrentAppends ensures id assignment is atomic.
func TestConcurrentAppends(t *testing.T) {
	s, _ := newStore(t)

	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			errs <- s.Append(ctx, &store.Batch{Op: "add", Requested: i})
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, <-errs)
	}

	ids := map[store.BatchID]bool{}
	require.NoError(t, s.Walk(func(b *store.Batch) bool {
		ids[b.ID] = true
		return true
	}))
	assert.Len(t, ids, 20)
	assert.True(t, ids[20])
}

func TestReadOnlyReopen(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, s.Append(ctx, &store.Batch{Op: "load", Requested: 10}))
	require.NoError(t, s.Close())

	ro, err := OpenReadOnly(path, nil)
	require.NoError(t, err)
	defer func() { _ = ro.Close() }()

	b, err := ro.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, b.Requested)
	assert.Error(t, ro.Append(ctx, &store.Batch{Op: "add"}))
}

func TestClosedStore(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "closing twice is fine")

	assert.ErrorIs(t, s.Append(ctx, &store.Batch{}), store.ErrClosed)
	assert.ErrorIs(t, s.Walk(func(*store.Batch) bool { return true }), store.ErrClosed)
}

// TestPersistedValues verifies that bytes written are real MessagePack.
func TestPersistedValues(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, s.Append(ctx, &store.Batch{Op: "refresh"}))
	require.NoError(t, s.Close())

	// fixstr "refresh" is 0xa7 followed by the bytes
	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(blob, append([]byte{0xa7}, "refresh"...)),
		"file does not appear to contain the msgpack encoded op")
}
