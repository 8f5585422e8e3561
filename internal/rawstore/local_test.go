package rawstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewName(t *testing.T) {
	a, err := NewName()
	require.NoError(t, err)
	b, err := NewName()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "data-"))
	assert.True(t, strings.HasSuffix(a, ".json"))
	assert.NotEqual(t, a, b)
}

func TestLocalStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "LocationData")
	_, err := NewLocalStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalStoreRejectsEmptyDir(t *testing.T) {
	_, err := NewLocalStore("")
	assert.Error(t, err)
}

func TestLocalStorePutWritesVerbatimCopies(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first := []byte(`{"name":"Sicyos angulatus","latitude":35.8,"longitude":128.8,"device":"pixel"}`)
	second := []byte("{\n  \"name\": \"Prickly lettuce\"\n}")

	a, err := store.Put(ctx, first)
	require.NoError(t, err)
	b, err := store.Put(ctx, second)
	require.NoError(t, err)

	assert.NotEqual(t, a.Key, b.Key)
	assert.EqualValues(t, len(first), a.Size)

	got, err := os.ReadFile(filepath.Join(store.Dir(), a.Key))
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = os.ReadFile(filepath.Join(store.Dir(), b.Key))
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestLocalStoreConcurrentPutsNeverCollide(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	const writers = 32
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Put(context.Background(), []byte(`{}`))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, writers)
}

func TestKeyFor(t *testing.T) {
	at := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "raw/2024/06/01/data-x.json", KeyFor("raw", at, "data-x.json"))
}
