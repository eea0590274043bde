package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestState_AuthenticatedRequiresTokenAndRealm(t *testing.T) {
	var s State
	assert.False(t, s.Authenticated())

	s.Token = &OAuthToken{AccessToken: "at"}
	assert.False(t, s.Authenticated(), "token without realm is not authenticated")

	s = State{RealmID: "999"}
	assert.False(t, s.Authenticated(), "realm without token is not authenticated")

	s.Establish(&OAuthToken{AccessToken: "at"}, "999")
	assert.True(t, s.Authenticated())
}

func TestState_EstablishDropsStaleCache(t *testing.T) {
	s := State{
		Token:     &OAuthToken{AccessToken: "old"},
		RealmID:   "111",
		InvoiceID: "5",
	}

	s.Establish(&OAuthToken{AccessToken: "new"}, "222")

	assert.Equal(t, "new", s.Token.AccessToken)
	assert.Equal(t, "222", s.RealmID)
	assert.Empty(t, s.InvoiceID)
}

func TestState_ClearUnsetsTokenAndRealmTogether(t *testing.T) {
	s := State{Token: &OAuthToken{AccessToken: "at"}, RealmID: "999"}
	s.Clear()

	assert.Nil(t, s.Token)
	assert.Empty(t, s.RealmID)
	assert.False(t, s.Authenticated())
}

func TestMemoryStore_Roundtrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrNotFound)

	state := &State{Token: &OAuthToken{AccessToken: "at"}, RealmID: "999"}
	require.NoError(t, store.Save(ctx, "sid-1", state))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "999", got.RealmID)
	assert.True(t, got.Authenticated())

	// Mutating the returned copy must not leak into the store.
	got.RealmID = "changed"
	again, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "999", again.RealmID)

	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, err = store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFallbackStore_UsesLocalCacheWhenRedisUnhealthy(t *testing.T) {
	// Redis is never touched while the health check reports unhealthy, so a
	// nil client is safe here.
	store := NewFallbackStore(nil, "test", func() bool { return false }, zap.NewNop())
	ctx := context.Background()

	state := &State{Token: &OAuthToken{AccessToken: "at"}, RealmID: "999"}
	require.NoError(t, store.Save(ctx, "sid-1", state))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, got.Authenticated())

	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, err = store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
