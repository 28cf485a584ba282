package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ponderdome/ponderdome/internal/models"
	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLeaderboard_RanksAreContiguousAndSorted(t *testing.T) {
	store := newMemStore()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	carol := store.addUser("carol")
	store.addUser("dave") // no posts

	store.addPost(alice.ID, "one", 5)
	store.addPost(alice.ID, "two", 7)
	store.addPost(bob.ID, "three", 30)
	store.addPost(carol.ID, "four", 0)

	svc := NewLeaderboardService(store, 50, logger.Discard())
	entries, err := svc.GetLeaderboard(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, entries[i-1].TotalLikes, e.TotalLikes)
		}
	}

	assert.Equal(t, bob.ID, entries[0].UserID)
	assert.Equal(t, int64(30), entries[0].TotalLikes)
	assert.Equal(t, alice.ID, entries[1].UserID)
	assert.Equal(t, int64(12), entries[1].TotalLikes)
	assert.Equal(t, int64(2), entries[1].TotalPosts)
	assert.Equal(t, "carol", entries[2].Name)
}

func TestGetLeaderboard_TiesOrderedByUserID(t *testing.T) {
	store := newMemStore()
	a := store.addUser("a")
	b := store.addUser("b")
	store.addPost(a.ID, "x", 10)
	store.addPost(b.ID, "y", 10)

	entries, err := NewLeaderboardService(store, 50, logger.Discard()).GetLeaderboard(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Less(t, entries[0].UserID.String(), entries[1].UserID.String())
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestGetLeaderboard_Limit(t *testing.T) {
	store := newMemStore()
	for i := 0; i < 5; i++ {
		u := store.addUser(uuid.NewString()[:8])
		store.addPost(u.ID, "p", int64(i))
	}

	entries, err := NewLeaderboardService(store, 50, logger.Discard()).GetLeaderboard(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(4), entries[0].TotalLikes)
	assert.Equal(t, int64(3), entries[1].TotalLikes)
}

func TestGetLeaderboard_EmptyAndUnknownAuthor(t *testing.T) {
	store := newMemStore()
	svc := NewLeaderboardService(store, 50, logger.Discard())

	entries, err := svc.GetLeaderboard(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	ghost := uuid.New()
	store.addPost(ghost, "orphan", 3)

	entries, err = svc.GetLeaderboard(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ghost, entries[0].UserID)
	assert.Equal(t, "Unknown", entries[0].Name)
}

func TestStandings_OutsideTopHasNilRank(t *testing.T) {
	store := newMemStore()
	top := store.addUser("top")
	low := store.addUser("low")
	store.addPost(top.ID, "a", 100)
	store.addPost(low.ID, "b", 1)

	svc := NewLeaderboardService(store, 1, logger.Discard())
	standings, err := svc.Standings(context.Background(), []uuid.UUID{top.ID, low.ID, low.ID})
	require.NoError(t, err)

	require.NotNil(t, standings[top.ID].Rank)
	assert.Equal(t, 1, *standings[top.ID].Rank)
	assert.Equal(t, int64(100), standings[top.ID].TotalLikes)

	assert.Nil(t, standings[low.ID].Rank)
	assert.Equal(t, int64(1), standings[low.ID].TotalLikes)
}

type brokenAggregateStore struct{ *memStore }

func (s brokenAggregateStore) Posts() PostStore { return brokenAggregatePosts{memPosts{s.memStore}} }

type brokenAggregatePosts struct{ memPosts }

func (brokenAggregatePosts) AggregateByAuthor(ctx context.Context, limit int) ([]models.AuthorTotals, error) {
	return nil, errors.New("connection reset")
}

func TestGetLeaderboard_StoreFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	svc := NewLeaderboardService(brokenAggregateStore{newMemStore()}, 50, logger.New(&buf, "info"))

	_, err := svc.GetLeaderboard(context.Background(), 10)
	assert.ErrorContains(t, err, "connection reset")
	assert.Contains(t, buf.String(), "Failed to compute leaderboard")
	assert.Contains(t, buf.String(), `"limit":10`)

	_, err = svc.Standings(context.Background(), []uuid.UUID{uuid.New()})
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "Failed to compute author standings")
}
