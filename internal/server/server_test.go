package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrend/chat/internal/api"
	"github.com/retrend/chat/internal/config"
	"github.com/retrend/chat/internal/db"
)

// newTestStore spins up the full store and returns logged-in clients for
// alice and bob.
func newTestStore(t *testing.T) (alice, bob *api.Client, srv *Server) {
	t.Helper()

	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	srv = New(config.ServerConfig{SessionTTL: time.Hour}, database)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ctx := context.Background()
	require.NoError(t, srv.users.Create(ctx, "alice@example.com", "Alice", "hunter2"))
	require.NoError(t, srv.users.Create(ctx, "bob@example.com", "Bob", "hunter2"))

	alice, err = api.New(api.Config{BaseURL: ts.URL})
	require.NoError(t, err)
	_, err = alice.Login(ctx, "alice@example.com", "hunter2")
	require.NoError(t, err)

	bob, err = api.New(api.Config{BaseURL: ts.URL})
	require.NoError(t, err)
	_, err = bob.Login(ctx, "bob@example.com", "hunter2")
	require.NoError(t, err)

	return alice, bob, srv
}

func TestSendFetchMarkReadRoundTrip(t *testing.T) {
	alice, bob, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, alice.SendMessage(ctx, "is the bike still available?", "ad-1042", "bob@example.com"))
	require.NoError(t, bob.SendMessage(ctx, "yes, it is", "ad-1042", "alice@example.com"))

	messages, err := alice.FetchNewMessages(ctx, "ad-1042", "bob@example.com")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "is the bike still available?", messages[0].Body)
	assert.Equal(t, "yes, it is", messages[1].Body)
	assert.False(t, messages[1].IsRead)

	// Alice marks bob's message read; resubmitting is harmless.
	require.NoError(t, alice.MarkMessagesRead(ctx, []string{messages[1].ID}))
	require.NoError(t, alice.MarkMessagesRead(ctx, []string{messages[1].ID}))

	messages, err = alice.FetchNewMessages(ctx, "ad-1042", "bob@example.com")
	require.NoError(t, err)
	assert.True(t, messages[1].IsRead)
	// Alice cannot flip her own outbound message.
	assert.False(t, messages[0].IsRead)
}

func TestSendToBlockingRecipientIsRejected(t *testing.T) {
	alice, bob, srv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, srv.users.Block(ctx, "bob@example.com", "alice@example.com"))

	err := alice.SendMessage(ctx, "hello?", "ad-1042", "bob@example.com")
	assert.ErrorIs(t, err, api.ErrSendRejected)

	// Nothing was stored.
	messages, err := bob.FetchNewMessages(ctx, "ad-1042", "alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	alice, _, _ := newTestStore(t)
	ctx := context.Background()

	alice.SetToken("bogus")
	_, err := alice.FetchNewMessages(ctx, "ad-1042", "bob@example.com")
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	err = alice.SendMessage(ctx, "hi", "ad-1042", "bob@example.com")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	alice, _, _ := newTestStore(t)
	_, err := alice.Login(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, api.ErrInvalidCredentials)
}

func TestEmptyConversationReturnsEmptyList(t *testing.T) {
	alice, _, _ := newTestStore(t)
	messages, err := alice.FetchNewMessages(context.Background(), "ad-7777", "bob@example.com")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
