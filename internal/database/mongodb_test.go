package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectMongo_InvalidURI(t *testing.T) {
	_, err := ConnectMongo(context.Background(), "not-a-mongo-uri", time.Second)
	require.Error(t, err)
	require.Contains(t, err.Error(), "mongo connect")
}

func TestConnectMongoWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	start := time.Now()
	_, err := ConnectMongoWithRetry(context.Background(), "not-a-mongo-uri", time.Second, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 1 attempts")
	require.Less(t, time.Since(start), 2*time.Second)
}
