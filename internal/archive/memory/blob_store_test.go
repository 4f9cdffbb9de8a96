package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutObjectStoresCopy(t *testing.T) {
	t.Parallel()

	store := New()
	data := []byte(`{"username":"nasa"}`)
	uri, err := store.PutObject(context.Background(), "results/7/42/x.json", "application/json", data)
	require.NoError(t, err)
	require.Equal(t, "mem://results/7/42/x.json", uri)

	data[0] = '!'
	stored, ok := store.Object("results/7/42/x.json")
	require.True(t, ok)
	require.Equal(t, byte('{'), stored[0])
}

func TestPutObjectRequiresPath(t *testing.T) {
	t.Parallel()

	store := New()
	_, err := store.PutObject(context.Background(), "", "application/json", nil)
	require.Error(t, err)
}
