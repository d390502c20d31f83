package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStorePutAndGet(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	uri, err := store.PutObject(context.Background(), "raw/2023-09-08/abc.html", "text/html", strings.NewReader("<html></html>"))
	require.NoError(t, err)
	assert.Equal(t, "memory://raw/2023-09-08/abc.html", uri)

	obj, ok := store.Get("raw/2023-09-08/abc.html")
	require.True(t, ok)
	assert.Equal(t, "text/html", obj.ContentType)
	assert.Equal(t, "<html></html>", string(obj.Data))

	// Mutating a returned copy leaves the stored object intact.
	obj.Data[0] = 'X'
	again, _ := store.Get("raw/2023-09-08/abc.html")
	assert.Equal(t, "<html></html>", string(again.Data))

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestBlobStorePaths(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	for _, p := range []string{"b.html", "a.html", "b.html"} {
		_, err := store.PutObject(context.Background(), p, "", strings.NewReader(p))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a.html", "b.html"}, store.Paths())
}

func TestBlobStoreRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := NewBlobStore().PutObject(context.Background(), "", "", strings.NewReader("x"))
	require.Error(t, err)
}
