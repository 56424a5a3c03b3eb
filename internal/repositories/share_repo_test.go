package repositories

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func createLink(t *testing.T, repo ShareRepository, token string, expiresAt *time.Time, maxAccess *int64) *models.ShareLink {
	t.Helper()
	link := &models.ShareLink{
		Token:          token,
		DocumentID:     10,
		CreatedByID:    1,
		CreatedAt:      baseTime,
		ExpiresAt:      expiresAt,
		MaxAccessCount: maxAccess,
	}
	require.NoError(t, repo.Create(context.Background(), link))
	return link
}

func TestShareRepository_ConsumeRespectsMaxAccessCount(t *testing.T) {
	repo := NewShareRepository(newTestDB(t))
	ctx := context.Background()
	createLink(t, repo, "tok-max", nil, ptr(int64(2)))

	for i := 0; i < 2; i++ {
		ok, err := repo.ConsumeByToken(ctx, "tok-max", baseTime)
		require.NoError(t, err)
		assert.True(t, ok, "access %d should succeed", i+1)
	}

	ok, err := repo.ConsumeByToken(ctx, "tok-max", baseTime)
	require.NoError(t, err)
	assert.False(t, ok)

	link, err := repo.FindByToken(ctx, "tok-max")
	require.NoError(t, err)
	assert.Equal(t, int64(2), link.AccessCount)
}

func TestShareRepository_ConsumeRespectsExpiry(t *testing.T) {
	repo := NewShareRepository(newTestDB(t))
	ctx := context.Background()
	createLink(t, repo, "tok-exp", ptr(baseTime.Add(time.Hour)), nil)

	ok, err := repo.ConsumeByToken(ctx, "tok-exp", baseTime.Add(59*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ConsumeByToken(ctx, "tok-exp", baseTime.Add(61*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShareRepository_ConsumeUnknownToken(t *testing.T) {
	repo := NewShareRepository(newTestDB(t))
	ok, err := repo.ConsumeByToken(context.Background(), "nope", baseTime)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.FindByToken(context.Background(), "nope")
	assert.ErrorIs(t, err, xerr.ErrShareNotFound)
}

func TestShareRepository_ConcurrentConsumeSingleUse(t *testing.T) {
	repo := NewShareRepository(newTestDB(t))
	createLink(t, repo, "tok-once", nil, ptr(int64(1)))

	const workers = 16
	var wg sync.WaitGroup
	var successes atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ConsumeByToken(context.Background(), "tok-once", baseTime)
			if assert.NoError(t, err) && ok {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	link, err := repo.FindByToken(context.Background(), "tok-once")
	require.NoError(t, err)
	assert.Equal(t, int64(1), link.AccessCount)
}

func TestShareRepository_RevokeIsTerminalAndIdempotent(t *testing.T) {
	repo := NewShareRepository(newTestDB(t))
	ctx := context.Background()
	link := createLink(t, repo, "tok-rev", nil, nil)

	changed, err := repo.Revoke(ctx, link.ID, baseTime)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.Revoke(ctx, link.ID, baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)

	ok, err := repo.ConsumeByToken(ctx, "tok-rev", baseTime)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, link.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	assert.True(t, baseTime.Equal(*got.RevokedAt))
}

func TestShareRepository_ListActiveExcludesRevoked(t *testing.T) {
	repo := NewShareRepository(newTestDB(t))
	ctx := context.Background()
	kept := createLink(t, repo, "tok-a", ptr(baseTime.Add(-time.Hour)), nil)
	revoked := createLink(t, repo, "tok-b", nil, nil)
	_, err := repo.Revoke(ctx, revoked.ID, baseTime)
	require.NoError(t, err)

	links, err := repo.ListActiveByDocument(ctx, 10)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, kept.ID, links[0].ID)
}
