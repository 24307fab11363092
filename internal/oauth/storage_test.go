package oauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	got, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	record := &TokenRecord{Tokens: &Tokens{AccessToken: "abc"}}
	require.NoError(t, s.Set(ctx, "srv", record))

	got, err = s.Get(ctx, "srv")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.Tokens.AccessToken)

	require.NoError(t, s.Delete(ctx, "srv"))
	got, err = s.Get(ctx, "srv")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTokens_Expired(t *testing.T) {
	assert.False(t, Tokens{}.Expired())
}
