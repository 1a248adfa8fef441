package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Read  bool   `json:"read"`
}

func TestAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter[[]record](NewMemoryKV(), "seswa_notifications", zap.NewNop())

	in := []record{{ID: "1", Title: "Hi"}, {ID: "2", Title: "There", Read: true}}
	require.NoError(t, a.Save(ctx, "u1", 1, in))

	out, ok := a.Load(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestAdapterKeysAreNamespacedPerUser(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	a := NewAdapter[[]record](kv, "seswa_chats", zap.NewNop())

	assert.Equal(t, "seswa_chats_u1", a.Key("u1"))

	require.NoError(t, a.Save(ctx, "u1", 1, []record{{ID: "a"}}))
	_, ok := a.Load(ctx, "u2")
	assert.False(t, ok)

	raw, err := kv.Get(ctx, "seswa_chats_u1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","title":"","read":false}]`, string(raw))
}

func TestAdapterDeleteRemovesOnlyThatUser(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	chats := NewAdapter[[]record](kv, "seswa_chats", zap.NewNop())
	notifications := NewAdapter[[]record](kv, "seswa_notifications", zap.NewNop())

	require.NoError(t, chats.Save(ctx, "u1", 1, []record{{ID: "c"}}))
	require.NoError(t, chats.Save(ctx, "u2", 2, []record{{ID: "c"}}))
	require.NoError(t, notifications.Save(ctx, "u1", 3, []record{{ID: "n"}}))

	for _, st := range []UserState{chats, notifications} {
		require.NoError(t, st.Delete(ctx, "u1"))
		require.NoError(t, st.Delete(ctx, "u1"), "deleting twice is fine")
	}

	_, ok := chats.Load(ctx, "u1")
	assert.False(t, ok)
	_, ok = notifications.Load(ctx, "u1")
	assert.False(t, ok)
	_, ok = chats.Load(ctx, "u2")
	assert.True(t, ok)

	_, err := kv.Get(ctx, "seswa_notifications_u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdapterLoadMissingIsEmpty(t *testing.T) {
	a := NewAdapter[[]record](NewMemoryKV(), "p", zap.NewNop())
	out, ok := a.Load(context.Background(), "nobody")
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestAdapterLoadCorruptIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, "p_u1", []byte("{not json")))

	a := NewAdapter[[]record](kv, "p", zap.NewNop())
	out, ok := a.Load(ctx, "u1")
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestAdapterDropsStaleVersions(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter[[]record](NewMemoryKV(), "p", zap.NewNop())

	require.NoError(t, a.Save(ctx, "u1", 5, []record{{ID: "newer"}}))
	require.NoError(t, a.Save(ctx, "u1", 3, []record{{ID: "older"}}))
	require.NoError(t, a.Save(ctx, "u1", 5, []record{{ID: "same-version"}}))

	out, ok := a.Load(ctx, "u1")
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, "newer", out[0].ID)

	// versions are tracked per key
	require.NoError(t, a.Save(ctx, "u2", 1, []record{{ID: "other-user"}}))
	out, ok = a.Load(ctx, "u2")
	require.True(t, ok)
	assert.Equal(t, "other-user", out[0].ID)
}

func TestNextVersionIncreases(t *testing.T) {
	a, b := NextVersion(), NextVersion()
	assert.Greater(t, b, a)
}
