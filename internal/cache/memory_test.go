package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimpleMemoryStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewMemoryStore(ctx, time.Minute, time.Second)
	store.Close()
	cancel()
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(context.Background(), time.Millisecond*10, time.Minute)
	defer store.Close()
	found, val, err := store.Get("test")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
	assert.NoError(t, store.Set("test", []byte("value")))
	found, val, err = store.Get("test")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), val)
	time.Sleep(time.Millisecond * 11)
	found, val, err = store.Get("test")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestMemoryStoreNoTTL(t *testing.T) {
	store := NewMemoryStore(context.Background(), 0, 0)
	defer store.Close()
	assert.NoError(t, store.Set("test", []byte("value")))
	time.Sleep(time.Millisecond * 5)
	found, _, err := store.Get("test")
	assert.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryStoreBackgroundExpire(t *testing.T) {
	store := NewMemoryStore(context.Background(), 90*time.Millisecond, 100*time.Millisecond)
	assert.NoError(t, store.Set("test", []byte("value")))
	found, _, err := store.Get("test")
	assert.NoError(t, err)
	assert.True(t, found)
	time.Sleep(time.Millisecond * 250)
	assert.Equal(t, 0, store.Len())
	store.Close()
}
