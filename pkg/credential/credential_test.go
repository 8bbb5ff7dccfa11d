package credential_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/curaq/pkg/credential"
	"github.com/irfansharif/curaq/pkg/kv"
)

func TestSetGetClear(t *testing.T) {
	ctx := context.Background()
	s := credential.New(kv.NewMemory())

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "  tok-123\n"))
	tok, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-123", tok)

	require.NoError(t, s.Clear(ctx))
	_, ok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlankTokenIsNeverStored(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := credential.New(store)

	for _, input := range []string{"", " ", "\t\n  "} {
		assert.ErrorIs(t, s.Set(ctx, input), credential.ErrEmpty)
	}
	_, err := store.Get(ctx, credential.Key)
	assert.ErrorIs(t, err, kv.ErrNotFound)

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlankTokenDoesNotReplaceExisting(t *testing.T) {
	ctx := context.Background()
	s := credential.New(kv.NewMemory())
	require.NoError(t, s.Set(ctx, "tok"))

	assert.ErrorIs(t, s.Set(ctx, "   "), credential.ErrEmpty)
	tok, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)
}
