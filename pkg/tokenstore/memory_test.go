package tokenstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStore_RetrieveMissingProcessor(t *testing.T) {
	s := NewMemoryTokenStore()
	token, found, err := s.RetrieveToken(context.Background(), "orders")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(0), token)
}

func TestMemoryTokenStore_StoreThenRetrieve(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	require.NoError(t, s.StoreToken(ctx, "orders", 8))

	token, found, err := s.RetrieveToken(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(8), token)
}

func TestMemoryTokenStore_IsolatesProcessors(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	require.NoError(t, s.StoreToken(ctx, "orders", 8))
	require.NoError(t, s.StoreToken(ctx, "shipments", 3))

	orders, _, err := s.RetrieveToken(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(8), orders)

	shipments, _, err := s.RetrieveToken(ctx, "shipments")
	require.NoError(t, err)
	assert.Equal(t, int64(3), shipments)
}

func TestMemoryTokenStore_OverwriteAdvancesToken(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	require.NoError(t, s.StoreToken(ctx, "orders", 8))
	require.NoError(t, s.StoreToken(ctx, "orders", 9))

	token, found, err := s.RetrieveToken(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(9), token)
}
