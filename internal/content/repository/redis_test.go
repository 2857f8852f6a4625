package repository

import (
	"context"
	"testing"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lovenotes/anniversary/internal/content"
)

func TestRedisRepo_MergeWriteAndFetch(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	repo := NewRedisRepo(client, "test:content:")
	ctx := context.Background()

	_, err = repo.Fetch(ctx, "site_content", "main_content")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.MergeWrite(ctx, "site_content", "main_content", content.Document{"a": "1"}))
	require.NoError(t, repo.MergeWrite(ctx, "site_content", "main_content", content.Document{"b": "2"}))

	got, err := repo.Fetch(ctx, "site_content", "main_content")
	require.NoError(t, err)
	require.Equal(t, content.Document{"a": "1", "b": "2"}, got)

	// stored as a plain hash
	require.Equal(t, "1", m.HGet("test:content:site_content:main_content", "a"))

	// empty merge is a no-op
	require.NoError(t, repo.MergeWrite(ctx, "site_content", "main_content", content.Document{}))
}

func TestRedisRepo_Unavailable(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	repo := NewRedisRepo(client, "")
	m.Close()

	_, err = repo.Fetch(context.Background(), "c", "d")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
